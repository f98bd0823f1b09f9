package db

import "testing"

func TestSqliteDSN_AddsForeignKeys(t *testing.T) {
	cases := map[string]string{
		"chat.db":                      "chat.db?_pragma=foreign_keys(1)",
		"file::memory:?cache=shared":   "file::memory:?cache=shared&_pragma=foreign_keys(1)",
		"x.db?_pragma=foreign_keys(1)": "x.db?_pragma=foreign_keys(1)",
	}
	for in, want := range cases {
		if got := sqliteDSN(in); got != want {
			t.Fatalf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConnect_Sqlite(t *testing.T) {
	gdb, err := Connect("sqlite", "file:db_connect_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := gdb.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("select: %v", err)
	}
}

func TestConnect_UnknownDriver(t *testing.T) {
	if _, err := Connect("oracle", "x"); err == nil {
		t.Fatalf("expected error")
	}
}
