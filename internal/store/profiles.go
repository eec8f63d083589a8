package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// UpsertProfile stores or replaces a user's preference profile. Profiles
// are owned by the external user-management layer; this is just where
// the core keeps its copy.
func (s *Store) UpsertProfile(ctx context.Context, p model.Profile) error {
	keywords, locations, roleTypes, excluded, err := encodeProfileLists(p)
	if err != nil {
		return fmt.Errorf("encoding profile for %s: %w", p.UserID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, keywords, locations, role_types, excluded_companies, min_score)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   keywords = excluded.keywords,
		   locations = excluded.locations,
		   role_types = excluded.role_types,
		   excluded_companies = excluded.excluded_companies,
		   min_score = excluded.min_score`,
		p.UserID, keywords, locations, roleTypes, excluded, p.MinScore,
	)
	if err != nil {
		return fmt.Errorf("upserting profile for %s: %w", p.UserID, err)
	}
	return nil
}

// GetProfile returns the profile for userID or ErrProfileNotFound.
func (s *Store) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, keywords, locations, role_types, excluded_companies, min_score
		 FROM profiles WHERE user_id = ?`, userID,
	)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile for %s: %w", userID, err)
	}
	return p, nil
}

// ListProfiles returns every stored profile.
func (s *Store) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, keywords, locations, role_types, excluded_companies, min_score
		 FROM profiles ORDER BY user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func encodeProfileLists(p model.Profile) (keywords, locations, roleTypes, excluded string, err error) {
	enc := func(v []string) (string, error) {
		if v == nil {
			v = []string{}
		}
		b, err := json.Marshal(v)
		return string(b), err
	}
	if keywords, err = enc(p.Keywords); err != nil {
		return
	}
	if locations, err = enc(p.Locations); err != nil {
		return
	}
	if roleTypes, err = enc(p.RoleTypes); err != nil {
		return
	}
	excluded, err = enc(p.ExcludedCompanies)
	return
}

func scanProfile(row rowScanner) (*model.Profile, error) {
	var p model.Profile
	var keywords, locations, roleTypes, excluded string
	if err := row.Scan(&p.UserID, &keywords, &locations, &roleTypes, &excluded, &p.MinScore); err != nil {
		return nil, err
	}
	for _, pair := range []struct {
		raw  string
		dest *[]string
	}{
		{keywords, &p.Keywords},
		{locations, &p.Locations},
		{roleTypes, &p.RoleTypes},
		{excluded, &p.ExcludedCompanies},
	} {
		if err := json.Unmarshal([]byte(pair.raw), pair.dest); err != nil {
			return nil, fmt.Errorf("decoding profile list for %s: %w", p.UserID, err)
		}
	}
	return &p, nil
}
