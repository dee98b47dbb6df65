package project

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultMotorDatabase(t *testing.T) {
	db, err := Default_motor_database()
	if err != nil {
		t.Fatalf("embedded database does not load: %v", err)
	}
	if len(db.Names()) < 5 {
		t.Fatalf("expected a populated database, got %v", db.Names())
	}
	m, ok := db.Lookup("LDO-42STH48-2004MAH")
	if !ok {
		t.Fatalf("lookup must be case insensitive")
	}
	if m.R != 1.4 || m.I != 2.0 || m.S != 200 {
		t.Fatalf("unexpected motor %+v", m)
	}
	for _, name := range db.Names() {
		m, _ := db.Lookup(name)
		if m.Cbemf() <= 0 {
			t.Fatalf("motor %s has no back-EMF constant", name)
		}
	}
}

func TestLoadMotorDatabaseErrors(t *testing.T) {
	cases := map[string]string{
		"missing key": `
[m]
resistance = 1.0
inductance = 0.002
holding_torque = 0.4
steps_per_revolution = 200
`,
		"zero current": `
[m]
resistance = 1.0
inductance = 0.002
holding_torque = 0.4
max_current = 0.0
steps_per_revolution = 200
`,
		"unknown key": `
[m]
resistance = 1.0
inductance = 0.002
holding_torque = 0.4
max_current = 1.0
steps_per_revolution = 200
colour = "black"
`,
		"syntax": `[m`,
	}
	for name, data := range cases {
		if _, err := Load_motor_database(data, name); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	_, err := Load_motor_database(cases["zero current"], "zero")
	if !errors.Is(err, ErrInvalidMotorCurrent) {
		t.Fatalf("expected the domain error to be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "zero") {
		t.Fatalf("error should name the source: %v", err)
	}
}

func TestMotorDatabaseMerge(t *testing.T) {
	db, _ := Default_motor_database()
	custom, _ := NewMotorConstants("omc-17hs19-2004s1", 1.2, 0.0025, 0.6, 200, 2.0)
	extra, _ := NewMotorConstants("My-Motor", 3.0, 0.005, 0.2, 400, 0.8)
	merged := db.Merge(custom, extra)

	if m, _ := merged.Lookup("omc-17hs19-2004s1"); m.R != 1.2 {
		t.Fatalf("override not applied: %+v", m)
	}
	if m, _ := db.Lookup("omc-17hs19-2004s1"); m.R != 1.4 {
		t.Fatalf("merge mutated the source database")
	}
	if _, ok := merged.Lookup("my-motor"); !ok {
		t.Fatalf("new motor missing after merge")
	}
	if len(merged.Names()) != len(db.Names())+1 {
		t.Fatalf("unexpected merged size %d", len(merged.Names()))
	}
}
