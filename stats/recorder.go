package stats

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/sarchlab/nicmem/sim"
	"github.com/tebeka/atexit"
)

// Sample is one row stored by the Recorder.
type Sample struct {
	Component string
	Name      string
	Time      sim.VTime
	Value     uint64
}

// Recorder is a Registry that stores every raw sample into an SQLite
// database. Samples are buffered and written in batches.
type Recorder struct {
	*sql.DB

	dbName     string
	timeTeller sim.TimeTeller
	batchSize  int
	buffer     []Sample
}

// NewRecorder creates a Recorder that writes into the SQLite file at path.
// When path is empty, a unique name is generated. Sample times are read from
// timeTeller. The buffered samples are flushed when the program exits through
// atexit.
func NewRecorder(path string, timeTeller sim.TimeTeller) (*Recorder, error) {
	r := &Recorder{
		dbName:     path,
		timeTeller: timeTeller,
		batchSize:  100000,
	}

	if err := r.init(); err != nil {
		return nil, err
	}

	atexit.Register(func() {
		if err := r.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush statistics: %v\n", err)
		}
	})

	return r, nil
}

func (r *Recorder) init() error {
	if r.dbName == "" {
		r.dbName = "nicmem_stats_" + xid.New().String() + ".sqlite3"
	}

	if _, err := os.Stat(r.dbName); err == nil {
		return fmt.Errorf("file %s already exists", r.dbName)
	}

	db, err := sql.Open("sqlite3", r.dbName)
	if err != nil {
		return fmt.Errorf("opening %s: %w", r.dbName, err)
	}

	r.DB = db

	_, err = r.Exec(`CREATE TABLE samples (
	component TEXT,
	name TEXT,
	time INTEGER,
	value INTEGER
);`)
	if err != nil {
		return fmt.Errorf("creating samples table: %w", err)
	}

	return nil
}

// Path returns the database file name.
func (r *Recorder) Path() string {
	return r.dbName
}

// Register returns a Statistic whose samples are stored with the given
// component and name.
func (r *Recorder) Register(component, name string) Statistic {
	return &recordedStatistic{
		recorder:  r,
		component: component,
		name:      name,
	}
}

func (r *Recorder) add(s Sample) {
	r.buffer = append(r.buffer, s)

	if len(r.buffer) >= r.batchSize {
		if err := r.Flush(); err != nil {
			panic(err)
		}
	}
}

// Flush writes all the buffered samples into the database in one
// transaction.
func (r *Recorder) Flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO samples (component, name, time, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range r.buffer {
		_, err = stmt.Exec(s.Component, s.Name, int64(s.Time), int64(s.Value))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing samples: %w", err)
	}

	r.buffer = r.buffer[:0]

	return nil
}

// Handle flushes the buffered samples when the simulation ends.
func (r *Recorder) Handle(_ sim.VTime) {
	if err := r.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush statistics: %v\n", err)
	}
}

// Close flushes the remaining samples and closes the database.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}

	return r.DB.Close()
}

type recordedStatistic struct {
	recorder  *Recorder
	component string
	name      string
}

func (s *recordedStatistic) AddData(value uint64) {
	var now sim.VTime
	if s.recorder.timeTeller != nil {
		now = s.recorder.timeTeller.CurrentTime()
	}

	s.recorder.add(Sample{
		Component: s.component,
		Name:      s.name,
		Time:      now,
		Value:     value,
	})
}
