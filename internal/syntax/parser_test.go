package syntax

import (
	"testing"

	svinverr "svinv/internal/errors"
)

func mustParse(t *testing.T, src string) *SourceText {
	t.Helper()
	tree, err := Parse("t.sv", []byte(src))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return tree
}

func TestParseANSIModule(t *testing.T) {
	tree := mustParse(t, `
module case1 (
  input logic CLK,
  input logic RST,
  input logic [31:0] DATA_IN,
  output logic [7:0] DATA_OUT,
  output logic BUSY
);
endmodule
`)

	if len(tree.Modules) != 1 {
		t.Fatalf("got %d modules, want 1", len(tree.Modules))
	}
	m := tree.Modules[0]
	if m.Name != "case1" {
		t.Errorf("module name = %q, want case1", m.Name)
	}
	if !m.HeaderIsANSI() {
		t.Error("header should be ANSI")
	}
	if len(m.Header) != 5 {
		t.Fatalf("got %d header entries, want 5", len(m.Header))
	}

	din := m.Header[2]
	if din.Name != "DATA_IN" || din.Dir == nil || *din.Dir != DirInput {
		t.Errorf("DATA_IN entry = %+v", din)
	}
	if din.Range == nil || !din.Range.MSB.IsLit || din.Range.MSB.Value != 31 {
		t.Errorf("DATA_IN range = %+v, want literal [31:0]", din.Range)
	}
}

func TestParseANSIBareContinuation(t *testing.T) {
	tree := mustParse(t, "module m (input logic CLK, RST);\nendmodule\n")
	m := tree.Modules[0]
	if len(m.Header) != 2 {
		t.Fatalf("got %d header entries, want 2", len(m.Header))
	}
	if m.Header[0].Dir == nil {
		t.Error("first entry should carry a direction")
	}
	if m.Header[1].Dir != nil {
		t.Error("bare continuation should not carry its own direction")
	}
	if m.Header[1].Name != "RST" {
		t.Errorf("second name = %q, want RST", m.Header[1].Name)
	}
}

func TestParseNonANSIModule(t *testing.T) {
	tree := mustParse(t, `
module case2 (CLK, RST, DIN, DOUT, BUSY);
  input logic CLK, RST;
  input logic [15:0] DIN;
  output logic [3:0] DOUT;
  output logic BUSY;
endmodule
`)

	m := tree.Modules[0]
	if m.HeaderIsANSI() {
		t.Error("bare header should not be ANSI")
	}
	if len(m.Header) != 5 {
		t.Fatalf("got %d header entries, want 5", len(m.Header))
	}

	var decls []*PortDeclItem
	for _, item := range m.Items {
		if d, ok := item.(*PortDeclItem); ok {
			decls = append(decls, d)
		}
	}
	if len(decls) != 4 {
		t.Fatalf("got %d port declarations, want 4", len(decls))
	}
	if len(decls[0].Names) != 2 || decls[0].Names[0] != "CLK" || decls[0].Names[1] != "RST" {
		t.Errorf("first declaration names = %v, want [CLK RST]", decls[0].Names)
	}
	if decls[1].Range == nil || !decls[1].Range.MSB.IsLit || decls[1].Range.MSB.Value != 15 {
		t.Errorf("DIN range = %+v, want literal [15:0]", decls[1].Range)
	}
}

func TestParseInstantiations(t *testing.T) {
	tree := mustParse(t, `
module top (input logic CLK);
  case2 c2a (.CLK(CLK), .RST(1'b0));
  case2 c2b (), c2c ();
  adder #(.WIDTH(8)) a0 (.a(x), .b(y));
endmodule
`)

	m := tree.Modules[0]
	var insts []*InstItem
	for _, item := range m.Items {
		if inst, ok := item.(*InstItem); ok {
			insts = append(insts, inst)
		}
	}
	if len(insts) != 3 {
		t.Fatalf("got %d instantiation statements, want 3", len(insts))
	}
	if insts[0].ModuleName != "case2" || len(insts[0].Instances) != 1 || insts[0].Instances[0].Name != "c2a" {
		t.Errorf("first statement = %+v", insts[0])
	}
	if len(insts[1].Instances) != 2 || insts[1].Instances[0].Name != "c2b" || insts[1].Instances[1].Name != "c2c" {
		t.Errorf("multi-instance statement = %+v", insts[1])
	}
	if insts[2].ModuleName != "adder" || insts[2].Instances[0].Name != "a0" {
		t.Errorf("parameterized statement = %+v", insts[2])
	}
}

func TestParseSkipsUnmodeledStatements(t *testing.T) {
	tree := mustParse(t, `
module m (input logic CLK);
  wire [3:0] tmp;
  parameter WIDTH = 8;
  assign tmp = 4'b0000;
  always_ff @(posedge CLK) begin
    if (tmp == 4'b1111) begin
      tmp <= 4'b0000;
    end
  end
  case2 u0 ();
endmodule
`)

	m := tree.Modules[0]
	if len(m.Items) != 1 {
		t.Fatalf("got %d retained items, want only the instantiation", len(m.Items))
	}
	inst, ok := m.Items[0].(*InstItem)
	if !ok || inst.ModuleName != "case2" {
		t.Errorf("retained item = %+v, want case2 instantiation", m.Items[0])
	}
}

func TestParseSkipsNonModuleTopLevel(t *testing.T) {
	tree := mustParse(t, `
package my_pkg;
  localparam X = 1;
endpackage

module m (input logic CLK);
endmodule

interface bus_if;
endinterface
`)

	if len(tree.Modules) != 1 || tree.Modules[0].Name != "m" {
		t.Fatalf("modules = %+v, want only m", tree.Modules)
	}
}

func TestParseModuleOrder(t *testing.T) {
	tree := mustParse(t, "module b;\nendmodule\nmodule a;\nendmodule\nmodule c;\nendmodule\n")
	var names []string
	for _, m := range tree.Modules {
		names = append(names, m.Name)
	}
	want := []string{"b", "a", "c"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("module order = %v, want %v", names, want)
		}
	}
}

func TestParseSymbolicRangeKeptOpaque(t *testing.T) {
	tree := mustParse(t, "module m (input logic [WIDTH-1:0] d);\nendmodule\n")
	rng := tree.Modules[0].Header[0].Range
	if rng == nil {
		t.Fatal("range missing")
	}
	if rng.MSB.IsLit {
		t.Errorf("symbolic bound parsed as literal: %+v", rng.MSB)
	}
	if rng.MSB.Text != "WIDTH-1" {
		t.Errorf("opaque bound text = %q, want WIDTH-1", rng.MSB.Text)
	}
	if !rng.LSB.IsLit || rng.LSB.Value != 0 {
		t.Errorf("LSB = %+v, want literal 0", rng.LSB)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing endmodule", "module m (input logic CLK);\n"},
		{"bad port list", "module m (input logic CLK,);\nendmodule\n"},
		{"unbalanced instantiation parens", "module m;\n foo u0 (;\nendmodule\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("t.sv", []byte(tt.src))
			if err == nil {
				t.Fatal("expected parse error")
			}
			if !svinverr.IsCode(err, svinverr.ParseError) {
				t.Errorf("error code = %v, want PARSE_ERROR", svinverr.CodeOf(err))
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("t.sv", []byte("module m (input logic CLK,);\nendmodule\n"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	var ee *svinverr.ExtractError
	if !asExtractError(err, &ee) {
		t.Fatalf("error type = %T", err)
	}
	if ee.File != "t.sv" || ee.Line != 1 {
		t.Errorf("error position = %s:%d, want t.sv:1", ee.File, ee.Line)
	}
}

func asExtractError(err error, target **svinverr.ExtractError) bool {
	for err != nil {
		if ee, ok := err.(*svinverr.ExtractError); ok {
			*target = ee
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
