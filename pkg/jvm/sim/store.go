package sim

import (
	"fmt"

	"github.com/hashicorp/go-memdb"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		"var": {
			Name: "var",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "NS"},
							&memdb.StringFieldIndex{Field: "Name"},
						},
					},
				},
			},
		},
		"namespace": {
			Name: "namespace",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Name"},
				},
			},
		},
	},
}

// namespace records a loaded namespace.  Records are immutable.
type namespace struct {
	Name string
}

// store is the var and namespace table of a simulated runtime.
type store struct{ db *memdb.MemDB }

func newStore() (store, error) {
	db, err := memdb.NewMemDB(schema)
	return store{db: db}, err
}

// Intern returns the var named ns/name, creating an unbound one if it
// does not exist.  Interning the same name twice returns the same cell.
func (s store) Intern(ns, name string, id func() uintptr) (*Var, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First("var", "id", ns, name)
	if err != nil {
		return nil, err
	}

	if obj != nil {
		return obj.(*Var), nil
	}

	v := &Var{id: id(), NS: ns, Name: name}
	if err = txn.Insert("var", v); err != nil {
		return nil, fmt.Errorf("intern %s/%s: %w", ns, name, err)
	}

	txn.Commit()
	return v, nil
}

// Loaded reports whether ns has been loaded.
func (s store) Loaded(ns string) bool {
	obj, err := s.db.Txn(false).First("namespace", "id", ns)
	return err == nil && obj != nil
}

// MarkLoaded records ns as loaded.
func (s store) MarkLoaded(ns string) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert("namespace", &namespace{Name: ns}); err != nil {
		return err
	}

	txn.Commit()
	return nil
}
