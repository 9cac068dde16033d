// Package core provides core types used throughout Tike.
//
// The package defines the Field union, the Record and Filter mappings,
// column definitions for CREATE TABLE, the Identity recorded on history
// snapshots, and the error taxonomy shared by every layer.
//
// # Fields
//
// A Field holds exactly one typed scalar. There are three kinds:
//   - Integer: 64-bit signed integers
//   - Real: 64-bit floating point numbers
//   - Text: strings
//
// A Field never represents NULL. An absent value is an absent key.
//
//	age := core.Integer(31)
//	switch v := age.(type) {
//	case core.Integer:
//	    fmt.Println(int64(v))
//	}
//
// # Records
//
// A Record pairs a table name with a column-to-Field mapping:
//
//	record := core.NewRecord("tasks", map[string]core.Field{
//	    "title":       core.Text("Buy milk"),
//	    "description": core.Text("2 litres"),
//	})
//
// # Table Definition
//
//	table := core.Table{
//	    Name: "tasks",
//	    Columns: []core.Column{
//	        {Name: "id", Type: core.IntegerType, PrimaryKey: true, AutoIncrement: true},
//	        {Name: "title", Type: core.TextType},
//	        {Name: "timeCreated", Type: core.DatetimeType, Default: core.Ptr("CURRENT_TIMESTAMP")},
//	    },
//	}
package core
