package farmer

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"farm-to-keells/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, f *Farmer) (*Farmer, error)
	GetByID(ctx context.Context, id int64) (*Farmer, error)
	GetByUsername(ctx context.Context, username string) (*Farmer, error)
	GetByEmail(ctx context.Context, email string) (*Farmer, error)
	UpdateProfile(ctx context.Context, id int64, u ProfileUpdate) (*Farmer, error)
	ListByDistrict(ctx context.Context, district District, search string) ([]Summary, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const farmerColumns = `f.id, f.full_name, f.email, f.username, f.password, f.location, f.phone_number, f.address, f.avatar_url, f.created_at`

const uniqueViolation = "23505"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFarmer(row scanner, extra ...interface{}) (*Farmer, error) {
	var (
		f                      Farmer
		phone, address, avatar sql.NullString
	)
	dest := append([]interface{}{
		&f.ID, &f.FullName, &f.Email, &f.Username, &f.Password, &f.Location,
		&phone, &address, &avatar, &f.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	f.PhoneNumber = phone.String
	f.Address = address.String
	f.AvatarURL = avatar.String
	return &f, nil
}

// uniqueError maps a unique-constraint violation to the matching sentinel.
func uniqueError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case "farmers_username_key":
		return ErrUsernameTaken
	case "farmers_email_key":
		return ErrEmailExists
	}
	return err
}

// likeEscaper makes search text match literally inside ILIKE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *repository) Create(ctx context.Context, f *Farmer) (*Farmer, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("username", f.Username),
	)

	query := `
		INSERT INTO farmers AS f (full_name, email, username, password, location, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + farmerColumns

	created, err := scanFarmer(r.db.QueryRowContext(ctx, query,
		f.FullName, f.Email, f.Username, f.Password, f.Location, nullable(f.PhoneNumber),
	))
	if err != nil {
		log.Error("failed to insert farmer", zap.Error(err))
		return nil, uniqueError(err)
	}

	log.Info("farmer created", zap.Int64("farmer_id", created.ID))
	return created, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Farmer, error) {
	f, err := scanFarmer(r.db.QueryRowContext(ctx,
		`SELECT `+farmerColumns+` FROM farmers f WHERE f.id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFarmerNotFound
		}
		logger.FromCtx(ctx).Error("failed to get farmer", zap.Int64("farmer_id", id), zap.Error(err))
		return nil, err
	}
	return f, nil
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*Farmer, error) {
	f, err := scanFarmer(r.db.QueryRowContext(ctx,
		`SELECT `+farmerColumns+` FROM farmers f WHERE f.username = $1`, username,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFarmerNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Farmer, error) {
	f, err := scanFarmer(r.db.QueryRowContext(ctx,
		`SELECT `+farmerColumns+` FROM farmers f WHERE lower(f.email) = lower($1)`, email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFarmerNotFound
		}
		return nil, err
	}
	return f, nil
}

// UpdateProfile applies the non-nil fields and returns the stored row.
func (r *repository) UpdateProfile(ctx context.Context, id int64, u ProfileUpdate) (*Farmer, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateProfile"),
		zap.Int64("farmer_id", id),
	)

	var location *string
	if u.Location != nil {
		s := string(*u.Location)
		location = &s
	}

	query := `
		UPDATE farmers AS f SET
			full_name    = COALESCE($2, f.full_name),
			email        = COALESCE($3, f.email),
			location     = COALESCE($4, f.location),
			phone_number = COALESCE($5, f.phone_number),
			address      = COALESCE($6, f.address),
			avatar_url   = COALESCE($7, f.avatar_url)
		WHERE f.id = $1
		RETURNING ` + farmerColumns

	f, err := scanFarmer(r.db.QueryRowContext(ctx, query,
		id, u.FullName, u.Email, location, u.PhoneNumber, u.Address, u.AvatarURL,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFarmerNotFound
		}
		log.Error("failed to update farmer profile", zap.Error(err))
		return nil, uniqueError(err)
	}

	log.Info("farmer profile updated")
	return f, nil
}

// ListByDistrict lists farmers in district (every district when empty) whose
// name or email contains search, with their product names.
func (r *repository) ListByDistrict(ctx context.Context, district District, search string) ([]Summary, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByDistrict"),
	)

	query := `
		SELECT ` + farmerColumns + `,
			COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.id IS NOT NULL), '{}') AS product_names
		FROM farmers f
		LEFT JOIN products p ON p.farmer_id = f.id
		WHERE ($1 = '' OR f.location = $1)
		  AND ($2 = '' OR f.full_name ILIKE '%' || $2 || '%' ESCAPE '\' OR f.email ILIKE '%' || $2 || '%' ESCAPE '\')
		GROUP BY f.id
		ORDER BY f.full_name, f.id`

	rows, err := r.db.QueryContext(ctx, query, string(district), likeEscaper.Replace(search))
	if err != nil {
		log.Error("failed to list farmers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := []Summary{}
	for rows.Next() {
		names := pq.StringArray{}
		f, err := scanFarmer(rows, &names)
		if err != nil {
			log.Error("failed to scan farmer", zap.Error(err))
			return nil, err
		}
		list = append(list, Summary{Farmer: *f, ProductNames: []string(names)})
	}
	return list, rows.Err()
}
