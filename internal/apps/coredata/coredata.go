// Package coredata holds the academic structure every other app builds on:
// semesters, academic units and the course offerings linking them.
package coredata

import (
	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/purge"
)

// Semester is published in the public calendar and never purged.
var Semester = &catalog.Model{
	Name:   "Semester",
	Table:  "coredata_semester",
	Fields: []string{"name", "start_date", "end_date"},
	Schema: `CREATE TABLE IF NOT EXISTS coredata_semester (
		id INTEGER PRIMARY KEY,
		name VARCHAR(4) NOT NULL UNIQUE,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL
	)`,
	PurgePolicy: purge.PublicData{},
}

// Unit is an academic unit. Units are only removed once nothing refers
// to them, including child units.
var Unit = &catalog.Model{
	Name:   "Unit",
	Table:  "coredata_unit",
	Fields: []string{"label", "name", "parent_id"},
	Relations: []catalog.Relation{
		{Field: "parent_id", Target: "Unit"},
	},
	Schema: `CREATE TABLE IF NOT EXISTS coredata_unit (
		id INTEGER PRIMARY KEY,
		label VARCHAR(4) NOT NULL UNIQUE,
		name VARCHAR(60) NOT NULL,
		parent_id INTEGER REFERENCES coredata_unit (id)
	)`,
	PurgePolicy: purge.UnreferencedOnly{},
}

// CourseOffering is one section of a course in a semester. It has no
// purge policy of its own.
var CourseOffering = &catalog.Model{
	Name:   "CourseOffering",
	Table:  "coredata_courseoffering",
	Fields: []string{"subject", "number", "section", "semester_id", "owner_id"},
	Relations: []catalog.Relation{
		{Field: "semester_id", Target: "Semester"},
		{Field: "owner_id", Target: "Unit"},
	},
	Schema: `CREATE TABLE IF NOT EXISTS coredata_courseoffering (
		id INTEGER PRIMARY KEY,
		subject VARCHAR(4) NOT NULL,
		number VARCHAR(4) NOT NULL,
		section VARCHAR(4) NOT NULL,
		semester_id INTEGER NOT NULL REFERENCES coredata_semester (id),
		owner_id INTEGER NOT NULL REFERENCES coredata_unit (id)
	)`,
}

func init() {
	catalog.MustRegister(Semester)
	catalog.MustRegister(Unit)
	catalog.MustRegister(CourseOffering)
}
