package gating_test

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cytolib/gating"
	"github.com/cytolib/gating/gates"
	"github.com/cytolib/gating/sample"
)

// Example_database stores a gating report in a SQL database, one row per
// gate result, and reads it back.
func Example_database() {
	smp, err := sample.NewInMemory("specimen-001", []string{"FSC-A"}, [][]float64{
		{0}, {1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}, {9},
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	s := gating.New()
	singlets := gates.NewRectangle("singlets", []gating.Dimension{
		gating.NewDimension("FSC-A", gating.WithRange(2, 9)),
	})
	lymphocytes := gates.NewRectangle("lymphocytes", []gating.Dimension{
		gating.NewDimension("FSC-A", gating.WithRange(4, 7)),
	})
	if err := s.AddGate(singlets); err != nil {
		fmt.Println(err)
		return
	}
	if err := s.AddGate(lymphocytes, "root", "singlets"); err != nil {
		fmt.Println(err)
		return
	}

	res, err := s.Evaluate(smp)
	if err != nil {
		fmt.Println(err)
		return
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE gate_results (
			sample           TEXT NOT NULL,
			gate_id          TEXT NOT NULL,
			gate_path        TEXT NOT NULL,
			gate_type        TEXT NOT NULL,
			count            INTEGER NOT NULL,
			absolute_percent REAL NOT NULL,
			level            INTEGER NOT NULL,
			PRIMARY KEY (sample, gate_id, gate_path)
		)`)
	if err != nil {
		fmt.Println(err)
		return
	}

	for _, row := range res.Report() {
		_, err = db.Exec(
			`INSERT INTO gate_results VALUES (?, ?, ?, ?, ?, ?, ?)`,
			row.Sample,
			row.GateID,
			strings.Join(row.GatePath, "/"),
			row.GateType,
			row.Count,
			row.AbsolutePercent,
			row.Level,
		)
		if err != nil {
			fmt.Println(err)
			return
		}
	}

	rows, err := db.Query(
		`SELECT gate_id, count, absolute_percent
		 FROM gate_results
		 WHERE sample = ?
		 ORDER BY level, gate_id`, smp.ID())
	if err != nil {
		fmt.Println(err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int
		var absPct float64
		if err := rows.Scan(&id, &count, &absPct); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("%s: %d events, %.1f%%\n", id, count, absPct)
	}
	if err := rows.Err(); err != nil {
		fmt.Println(err)
	}

	// Output:
	// singlets: 8 events, 80.0%
	// lymphocytes: 4 events, 40.0%
}
