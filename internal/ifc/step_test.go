package ifc

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatReal(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0."},
		{1, "1."},
		{-2.5, "-2.5"},
		{1000000, "1.E+06"},
		{0.00001, "1.E-05"},
		{2.5e-7, "2.5E-07"},
		{-3e10, "-3.E+10"},
		{0.001, "0.001"},
	}
	for _, tc := range cases {
		if got := formatReal(tc.in); got != tc.want {
			t.Errorf("formatReal(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuote(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"O'Brien", "'O''Brien'"},
		{`back\slash`, `'back\\slash'`},
		{"façade", `'fa\X2\00E7\X0\ade'`},
		{"tab\there", "'tabhere'"},
	}
	for _, tc := range cases {
		if got := quote(tc.in); got != tc.want {
			t.Errorf("quote(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStepFile_WriteTo(t *testing.T) {
	f := newStepFile("IFC4", "out.ifc", "panelforge")
	origin := f.add("IFCCARTESIANPOINT", list(0.0, 0.0, 0.0))
	f.add("IFCAXIS2PLACEMENT3D", origin, nil, nil)
	f.add("IFCWALL", "guid", nil, "A wall", nil, star, enum("NOTDEFINED"), true, 3)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"ISO-10303-21;",
		"FILE_SCHEMA(('IFC4'));",
		"#1=IFCCARTESIANPOINT((0.,0.,0.));",
		"#2=IFCAXIS2PLACEMENT3D(#1,$,$);",
		"#3=IFCWALL('guid',$,'A wall',$,*,.NOTDEFINED.,.T.,3);",
		"ENDSEC;",
		"END-ISO-10303-21;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestStepFile_TypedValue(t *testing.T) {
	f := newStepFile("IFC4", "out.ifc", "app")
	f.add("IFCPROPERTYSINGLEVALUE", "Length_mm", nil, typed{"IFCREAL", 120.0}, nil)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "IFCREAL(120.)") {
		t.Errorf("expected typed value, got\n%s", buf.String())
	}
}

func TestStepFile_UnsupportedType(t *testing.T) {
	f := newStepFile("IFC4", "out.ifc", "app")
	f.add("IFCWALL", complex(1, 2))

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err == nil {
		t.Error("expected error for unsupported attribute type")
	}
}
