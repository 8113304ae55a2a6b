// Package catalog describes the persisted model types of the application.
//
// The catalog is the purge subsystem's view of the data model: for every
// model it knows the backing table, the primary key, the relation fields
// pointing at other models, and an optional attached purge policy.
//
// Application packages register their models at init time:
//
//	func init() {
//	    catalog.MustRegister(&catalog.Model{
//	        Name:  "LogEntry",
//	        Table: "log_logentry",
//	        Relations: []catalog.Relation{
//	            {Field: "userid", Target: "Person"},
//	        },
//	    })
//	}
//
// ReferencesTo inverts the relation graph and is what the unreferenced-only
// purge policy is built on.
package catalog
