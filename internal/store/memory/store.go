// Copyright 2026 The Workflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memory implements the repositories on go-memdb. It backs tests,
// local development and STORAGE_BACKEND=memory deployments.
package memory

import (
	"time"

	hcmemdb "github.com/hashicorp/go-memdb"
)

// Table names
const (
	tableOrganizations = "organizations"
	tableUsers         = "users"
	tableCredentials   = "credentials"
	tablePrograms      = "programs"
	tableActivities    = "activities"
	tableMemberships   = "memberships"
	tableContacts      = "contacts"
	tableTranslations  = "translations"
)

// Index names
const (
	PK                 = "id"
	indexName          = "name"
	indexUsername      = "username"
	indexOrganization  = "organization"
	indexProgram       = "program"
	indexUser          = "user"
	indexActivityUUIDs = "activity_uuids"
	indexLanguage      = "language"
)

func idIndex(field string) *hcmemdb.IndexSchema {
	return &hcmemdb.IndexSchema{
		Name:    PK,
		Unique:  true,
		Indexer: &hcmemdb.IntFieldIndex{Field: field},
	}
}

func intIndex(name, field string) *hcmemdb.IndexSchema {
	return &hcmemdb.IndexSchema{
		Name:    name,
		Indexer: &hcmemdb.IntFieldIndex{Field: field},
	}
}

func schema() *hcmemdb.DBSchema {
	return &hcmemdb.DBSchema{
		Tables: map[string]*hcmemdb.TableSchema{
			tableOrganizations: {
				Name: tableOrganizations,
				Indexes: map[string]*hcmemdb.IndexSchema{
					PK: idIndex("ID"),
					indexName: {
						Name:    indexName,
						Unique:  true,
						Indexer: &hcmemdb.StringFieldIndex{Field: "Name"},
					},
				},
			},
			tableUsers: {
				Name: tableUsers,
				Indexes: map[string]*hcmemdb.IndexSchema{
					PK: idIndex("ID"),
					indexUsername: {
						Name:    indexUsername,
						Unique:  true,
						Indexer: &hcmemdb.StringFieldIndex{Field: "Username"},
					},
				},
			},
			tableCredentials: {
				Name: tableCredentials,
				Indexes: map[string]*hcmemdb.IndexSchema{
					PK: idIndex("UserID"),
				},
			},
			tablePrograms: {
				Name: tablePrograms,
				Indexes: map[string]*hcmemdb.IndexSchema{
					PK:                idIndex("ID"),
					indexOrganization: intIndex(indexOrganization, "OrganizationID"),
				},
			},
			tableActivities: {
				Name: tableActivities,
				Indexes: map[string]*hcmemdb.IndexSchema{
					PK:           idIndex("ID"),
					indexProgram: intIndex(indexProgram, "ProgramID"),
				},
			},
			tableMemberships: {
				Name: tableMemberships,
				Indexes: map[string]*hcmemdb.IndexSchema{
					PK:           idIndex("ID"),
					indexUser:    intIndex(indexUser, "UserID"),
					indexProgram: intIndex(indexProgram, "ProgramID"),
				},
			},
			tableContacts: {
				Name: tableContacts,
				Indexes: map[string]*hcmemdb.IndexSchema{
					PK: idIndex("ID"),
					indexActivityUUIDs: {
						Name:         indexActivityUUIDs,
						AllowMissing: true,
						Indexer:      &hcmemdb.StringSliceFieldIndex{Field: "WorkflowLevel2UUIDs"},
					},
				},
			},
			tableTranslations: {
				Name: tableTranslations,
				Indexes: map[string]*hcmemdb.IndexSchema{
					PK: idIndex("ID"),
					indexLanguage: {
						Name:    indexLanguage,
						Indexer: &hcmemdb.StringFieldIndex{Field: "Language"},
					},
				},
			},
		},
	}
}

// Store owns the database and hands out repositories over it.
type Store struct {
	db *hcmemdb.MemDB
	// seq holds the last id per table; guarded by the memdb writer lock.
	seq map[string]int64
	now func() time.Time
}

// New creates an empty store.
func New() (*Store, error) {
	db, err := hcmemdb.NewMemDB(schema())
	if err != nil {
		return nil, err
	}
	return &Store{
		db:  db,
		seq: make(map[string]int64),
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// nextID must be called inside a write transaction.
func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Organizations returns the organization repository.
func (s *Store) Organizations() *OrganizationRepository { return &OrganizationRepository{s: s} }

// Users returns the user repository.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Programs returns the program repository.
func (s *Store) Programs() *ProgramRepository { return &ProgramRepository{s: s} }

// Activities returns the activity repository.
func (s *Store) Activities() *ActivityRepository { return &ActivityRepository{s: s} }

// Memberships returns the team membership repository.
func (s *Store) Memberships() *MembershipRepository { return &MembershipRepository{s: s} }

// Contacts returns the contact repository.
func (s *Store) Contacts() *ContactRepository { return &ContactRepository{s: s} }

// Translations returns the translation repository.
func (s *Store) Translations() *TranslationRepository { return &TranslationRepository{s: s} }
