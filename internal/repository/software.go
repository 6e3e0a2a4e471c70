package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/servicedesk/servicedesk/internal/model"
)

var ErrSoftwareNotFound = errors.New("software not found")

type SoftwareRepository interface {
	Create(software *model.Software) error
	ByID(id int64) (*model.Software, error)
	SetFile(id int64, path, name string, size int64) error
	Delete(id int64) error
}

type softwareRepository struct {
	db *sqlx.DB
}

func NewSoftwareRepository(db *sqlx.DB) SoftwareRepository {
	return &softwareRepository{db: db}
}

func (r *softwareRepository) Create(software *model.Software) error {
	query := `INSERT INTO software (name, version, external_url, file_path, file_name, file_size, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	return r.db.Get(&software.ID, query,
		software.Name, software.Version, software.ExternalURL,
		software.FilePath, software.FileName, software.FileSize,
		software.CreatedBy, software.CreatedAt)
}

func (r *softwareRepository) ByID(id int64) (*model.Software, error) {
	software := &model.Software{}
	query := `SELECT * FROM software WHERE id = $1`

	err := r.db.Get(software, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrSoftwareNotFound
	}

	return software, err
}

func (r *softwareRepository) SetFile(id int64, path, name string, size int64) error {
	query := `UPDATE software SET file_path = $1, file_name = $2, file_size = $3 WHERE id = $4`

	result, err := r.db.Exec(query, path, name, size, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSoftwareNotFound
	}

	return nil
}

func (r *softwareRepository) Delete(id int64) error {
	query := `DELETE FROM software WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSoftwareNotFound
	}

	return nil
}
