package server

import (
	"errors"
	"sync"

	"github.com/jrsteele09/go-auth-client/users"
)

var (
	errRecordExists   = errors.New("record already exists")
	errRecordNotFound = errors.New("record not found")
)

// Record is one row of demo data behind the /list and /view routes.
type Record struct {
	ID    string         `json:"id"`
	Owner string         `json:"owner,omitempty"` // primary id of the owning student
	Data  map[string]any `json:"data"`
}

type recordStore struct {
	mu      sync.RWMutex
	records map[users.Resource][]Record
}

func newRecordStore() *recordStore {
	return &recordStore{records: map[users.Resource][]Record{
		users.ResourceKurikulum: {
			{ID: "K2020", Data: map[string]any{"nama": "Kurikulum 2020", "tahun": 2020}},
			{ID: "K2024", Data: map[string]any{"nama": "Kurikulum 2024", "tahun": 2024}},
		},
		users.ResourceCPLProdi: {
			{ID: "CPL-01", Data: map[string]any{"deskripsi": "Mampu menerapkan pemikiran logis dan kritis"}},
			{ID: "CPL-02", Data: map[string]any{"deskripsi": "Mampu merancang solusi perangkat lunak"}},
		},
		users.ResourceCPMK: {
			{ID: "CPMK-011", Data: map[string]any{"cpl": "CPL-01", "deskripsi": "Menjelaskan konsep algoritma"}},
		},
		users.ResourceMataKuliah: {
			{ID: "IF101", Data: map[string]any{"nama": "Algoritma dan Pemrograman", "sks": 4}},
			{ID: "IF202", Data: map[string]any{"nama": "Basis Data", "sks": 3}},
		},
		users.ResourceRPS: {
			{ID: "RPS-IF101", Data: map[string]any{"mata_kuliah": "IF101", "pekan": 16}},
		},
		users.ResourceBobotCPMK: {
			{ID: "B-IF101-011", Data: map[string]any{"mata_kuliah": "IF101", "cpmk": "CPMK-011", "bobot": 40}},
		},
		users.ResourceNilaiMK: {
			{ID: "N-1", Owner: "2101010001", Data: map[string]any{"mata_kuliah": "IF101", "nilai": "A"}},
			{ID: "N-2", Owner: "2101010002", Data: map[string]any{"mata_kuliah": "IF101", "nilai": "B"}},
		},
		users.ResourceUkurCPL: {
			{ID: "U-1", Owner: "2101010001", Data: map[string]any{"cpl": "CPL-01", "capaian": 82.5}},
		},
		users.ResourceMahasiswa: {
			{ID: "2101010001", Owner: "2101010001", Data: map[string]any{"nama": "Budi Santoso", "angkatan": 2021}},
			{ID: "2101010002", Owner: "2101010002", Data: map[string]any{"nama": "Ani Lestari", "angkatan": 2021}},
		},
	}}
}

func (rs *recordStore) List(resource users.Resource) []Record {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return append([]Record(nil), rs.records[resource]...)
}

func (rs *recordStore) Get(resource users.Resource, id string) (Record, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	i := rs.indexOf(resource, id)
	if i < 0 {
		return Record{}, false
	}
	return rs.records[resource][i], true
}

func (rs *recordStore) Add(resource users.Resource, record Record) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.indexOf(resource, record.ID) >= 0 {
		return errRecordExists
	}
	rs.records[resource] = append(rs.records[resource], record)
	return nil
}

// Update replaces the data of an existing record. The owner is kept.
func (rs *recordStore) Update(resource users.Resource, id string, data map[string]any) (Record, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	i := rs.indexOf(resource, id)
	if i < 0 {
		return Record{}, errRecordNotFound
	}
	rs.records[resource][i].Data = data
	return rs.records[resource][i], nil
}

func (rs *recordStore) Delete(resource users.Resource, id string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	i := rs.indexOf(resource, id)
	if i < 0 {
		return errRecordNotFound
	}
	rows := rs.records[resource]
	rs.records[resource] = append(rows[:i:i], rows[i+1:]...)
	return nil
}

// indexOf requires mu.
func (rs *recordStore) indexOf(resource users.Resource, id string) int {
	for i, r := range rs.records[resource] {
		if r.ID == id {
			return i
		}
	}
	return -1
}
