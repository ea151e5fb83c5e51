package ifc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Minimal writer for STEP physical files (ISO 10303-21), covering the IFC4
// subset the exporter emits. Entities are appended in creation order and
// referenced by #id.

// ref is a forward reference to an entity instance (#n).
type ref int

// enum renders as .VALUE. in the instance record.
type enum string

// typed renders as a typed value, e.g. IFCTEXT('x').
type typed struct {
	name  string
	value any
}

// star renders as *, the "derived" attribute marker. nil renders as $.
type starT struct{}

var star starT

type entity struct {
	id   ref
	typ  string
	args []any
}

type stepFile struct {
	schema   string
	filename string
	app      string
	entities []*entity
}

func newStepFile(schema, filename, app string) *stepFile {
	return &stepFile{schema: schema, filename: filename, app: app}
}

// add appends an entity instance and returns its reference.
func (f *stepFile) add(typ string, args ...any) ref {
	e := &entity{id: ref(len(f.entities) + 1), typ: typ, args: args}
	f.entities = append(f.entities, e)
	return e.id
}

// list builds an aggregate value from mixed members.
func list(vs ...any) []any { return vs }

// refs builds an aggregate of entity references.
func refs(rs ...ref) []any {
	out := make([]any, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}

// WriteTo serializes the full exchange file.
func (f *stepFile) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countWriter{w: bw}

	cw.printf("ISO-10303-21;\nHEADER;\n")
	cw.printf("FILE_DESCRIPTION((''),'2;1');\n")
	cw.printf("FILE_NAME(%s,%s,(''),(''),%s,%s,'');\n",
		quote(f.filename),
		quote(time.Now().UTC().Format("2006-01-02T15:04:05")),
		quote(f.app), quote(f.app))
	cw.printf("FILE_SCHEMA((%s));\n", quote(f.schema))
	cw.printf("ENDSEC;\nDATA;\n")

	for _, e := range f.entities {
		cw.printf("#%d=%s(", e.id, e.typ)
		for i, a := range e.args {
			if i > 0 {
				cw.printf(",")
			}
			if err := writeValue(cw, a); err != nil {
				return cw.n, fmt.Errorf("entity #%d %s: %w", e.id, e.typ, err)
			}
		}
		cw.printf(");\n")
	}

	cw.printf("ENDSEC;\nEND-ISO-10303-21;\n")
	if cw.err == nil {
		cw.err = bw.Flush()
	}
	return cw.n, cw.err
}

func writeValue(cw *countWriter, v any) error {
	switch x := v.(type) {
	case nil:
		cw.printf("$")
	case starT:
		cw.printf("*")
	case ref:
		cw.printf("#%d", x)
	case string:
		cw.printf("%s", quote(x))
	case enum:
		cw.printf(".%s.", string(x))
	case bool:
		if x {
			cw.printf(".T.")
		} else {
			cw.printf(".F.")
		}
	case int:
		cw.printf("%d", x)
	case float64:
		cw.printf("%s", formatReal(x))
	case typed:
		cw.printf("%s(", x.name)
		if err := writeValue(cw, x.value); err != nil {
			return err
		}
		cw.printf(")")
	case []any:
		cw.printf("(")
		for i, m := range x {
			if i > 0 {
				cw.printf(",")
			}
			if err := writeValue(cw, m); err != nil {
				return err
			}
		}
		cw.printf(")")
	default:
		return fmt.Errorf("unsupported attribute type %T", v)
	}
	return cw.err
}

// quote encodes a STEP string literal: apostrophes doubled, non-ASCII
// escaped as \X2\..\X0\ code points.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch {
		case r == '\'':
			b.WriteString("''")
		case r == '\\':
			b.WriteString("\\\\")
		case r < 0x20:
			// Control characters are not representable; drop them.
		case r < 0x7f:
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "\\X2\\%04X\\X0\\", r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// formatReal renders a REAL. Part 21 requires a decimal point in the
// mantissa even when an exponent is present ("1.E-05", not "1E-05").
func formatReal(v float64) string {
	s := strconv.FormatFloat(v, 'G', -1, 64)
	mant, exp, hasExp := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += "."
	}
	if hasExp {
		return mant + "E" + exp
	}
	return mant
}

type countWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countWriter) printf(format string, args ...any) {
	if cw.err != nil {
		return
	}
	n, err := fmt.Fprintf(cw.w, format, args...)
	cw.n += int64(n)
	cw.err = err
}
