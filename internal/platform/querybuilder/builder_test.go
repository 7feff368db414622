package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("public_id", "canonical_name").
		From("entities").
		Where(Eq("kind", "subject"), IsNull("team")).
		OrderBy("id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT public_id, canonical_name FROM entities WHERE kind = $1 AND team IS NULL ORDER BY id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "subject" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("entities").
		Columns("public_id", "canonical_name").
		Values("sub-nfl-01", "Patrick Mahomes").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO entities (public_id, canonical_name) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "sub-nfl-01" || args[1] != "Patrick Mahomes" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("entities").
		Set("team", "SF").
		SetExpr("updated_at", "NOW()").
		Where(Eq("public_id", "sub-nfl-01")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE entities SET team = $1, updated_at = NOW() WHERE public_id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "SF" || args[1] != "sub-nfl-01" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel(t *testing.T) {
	row := struct {
		PublicID string  `db:"public_id"`
		Source   string  `db:"source"`
		Line     float64 `db:"line"`
		internal string
	}{PublicID: "off-01", Source: "draftkings", Line: 275.5, internal: "skipped"}

	query, args, err := InsertModel("prop_offers", row, "ON CONFLICT (public_id) DO NOTHING")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}

	wantQuery := "INSERT INTO prop_offers (public_id, source, line) VALUES ($1, $2, $3) ON CONFLICT (public_id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "off-01" || args[1] != "draftkings" || args[2] != 275.5 {
		t.Fatalf("unexpected args: %+v", args)
	}
}
