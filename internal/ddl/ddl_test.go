package ddl

import (
	"strings"
	"testing"
)

func testDialect(ifNotExists bool) Dialect {
	return Dialect{
		Quote: DoubleQuote,
		MapType: func(kind string) string {
			switch kind {
			case "int":
				return "BIGINT"
			case "float":
				return "DOUBLE PRECISION"
			default:
				return "TEXT"
			}
		},
		IfNotExists: ifNotExists,
	}
}

/*
TestBuildCreateTableSQL_Basic checks column rendering, NOT NULL for keys and
the trailing PRIMARY KEY clause.
*/
func TestBuildCreateTableSQL_Basic(t *testing.T) {
	d := testDialect(true)
	td, err := d.FromKinds("public.tmdb_runs", []string{"run_id", "movies", "avg_vote"}, []string{"text", "int", "float"}, "run_id")
	if err != nil {
		t.Fatalf("FromKinds: %v", err)
	}
	got, err := d.BuildCreateTableSQL(td)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := `CREATE TABLE IF NOT EXISTS "public"."tmdb_runs" (
  "run_id" TEXT NOT NULL,
  "movies" BIGINT,
  "avg_vote" DOUBLE PRECISION,
  PRIMARY KEY ("run_id")
);`
	if got != want {
		t.Fatalf("sql mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestBuildCreateTableSQL_NoIfNotExists(t *testing.T) {
	d := testDialect(false)
	got, err := d.BuildCreateTableSQL(TableDef{FQN: "t", Columns: []ColumnDef{{Name: "a", SQLType: "TEXT", Nullable: true}}})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	if !strings.HasPrefix(got, `CREATE TABLE "t" (`) {
		t.Fatalf("unexpected prefix: %s", got)
	}
}

func TestBuildCreateTableSQL_Errors(t *testing.T) {
	d := testDialect(true)
	cases := []struct {
		name string
		td   TableDef
		want string
	}{
		{"empty fqn", TableDef{Columns: []ColumnDef{{Name: "a", SQLType: "TEXT"}}}, "FQN must not be empty"},
		{"no columns", TableDef{FQN: "t"}, "at least one column"},
		{"empty column name", TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "TEXT"}}}, "empty name"},
		{"missing type", TableDef{FQN: "t", Columns: []ColumnDef{{Name: "a"}}}, "missing SQLType"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.BuildCreateTableSQL(tc.td)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestFromKinds_LengthMismatch(t *testing.T) {
	if _, err := testDialect(true).FromKinds("t", []string{"a", "b"}, []string{"text"}); err == nil {
		t.Fatal("expected error for mismatched kinds")
	}
}

func TestQuoteFQN(t *testing.T) {
	d := testDialect(true)
	cases := map[string]string{
		"movies":        `"movies"`,
		"public.movies": `"public"."movies"`,
		"we\"ird":       `"we""ird"`,
		"a..b":          `"a"."b"`,
	}
	for in, want := range cases {
		if got := d.QuoteFQN(in); got != want {
			t.Errorf("QuoteFQN(%q) = %q, want %q", in, got, want)
		}
	}
}
