package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"livestock-backend/models"
	"livestock-backend/storage"
)

// GoatService speichert Ziegen samt Impfungen und Krankheiten. Jede Operation läuft
// in genau einer Transaktion und ist damit ganz oder gar nicht sichtbar.
type GoatService struct {
	DB       *storage.DB
	Resolver *ReferenceResolver
	Logger   *zap.Logger
	Metrics  *Metrics
}

// NewGoatService erstellt eine neue Instanz des GoatService.
func NewGoatService(db *storage.DB, resolver *ReferenceResolver, logger *zap.Logger, metrics *Metrics) *GoatService {
	return &GoatService{
		DB:       db,
		Resolver: resolver,
		Logger:   logger,
		Metrics:  metrics,
	}
}

// ListIDs liefert die IDs aller Ziegen, aufsteigend sortiert.
func (s *GoatService) ListIDs(ctx context.Context) ([]uint, error) {
	ids := []uint{}
	if err := s.DB.Read(ctx).Model(&models.GoatRecord{}).Order("id").Pluck("id", &ids).Error; err != nil {
		s.Logger.Error("Listing goat ids failed", zap.Error(err))
		return nil, storeErr("list goat ids", err)
	}
	return ids, nil
}

// Load liest eine Ziege mit allen Verknüpfungen aus einem einzigen Snapshot.
func (s *GoatService) Load(ctx context.Context, id uint) (*models.Goat, error) {
	var goat *models.Goat
	err := s.DB.ReadTx(ctx, func(tx *gorm.DB) error {
		var rec models.GoatRecord
		if err := tx.Take(&rec, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "goat", ID: id}
			}
			return storeErr("load goat", err)
		}
		g, err := rec.ToGoat()
		if err != nil {
			return err
		}
		if g.Vaccinations, err = loadReferences(tx, vaccineRelation, id); err != nil {
			return err
		}
		if g.Diseases, err = loadReferences(tx, diseaseRelation, id); err != nil {
			return err
		}
		goat = g
		return nil
	})
	if err != nil {
		return nil, s.fail("load", id, err)
	}
	return goat, nil
}

// LoadAll lädt alle Ziegen. Ziegen, die zwischen Auflistung und Laden gelöscht werden, fehlen im Ergebnis.
func (s *GoatService) LoadAll(ctx context.Context) ([]models.Goat, error) {
	ids, err := s.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	goats := make([]models.Goat, 0, len(ids))
	for _, id := range ids {
		g, err := s.Load(ctx, id)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				continue
			}
			return nil, err
		}
		goats = append(goats, *g)
	}
	return goats, nil
}

// Insert legt eine neue Ziege an und gibt ihre ID zurück. Eine mitgegebene ID wird ignoriert.
func (s *GoatService) Insert(ctx context.Context, goat *models.Goat) (uint, error) {
	if err := validateGoat(goat); err != nil {
		return 0, err
	}
	sess := s.Resolver.session()
	var id uint
	err := s.DB.WriteTx(ctx, func(tx *gorm.DB) error {
		rec := goat.ToRecord()
		if err := tx.Create(&rec).Error; err != nil {
			return storeErr("insert goat", err)
		}
		id = rec.ID
		return linkAll(tx, sess, id, goat)
	})
	if err != nil {
		return 0, s.fail("insert", 0, err)
	}
	s.committed(sess, "insert", id)
	return id, nil
}

// Replace überschreibt alle Felder und Verknüpfungen der Ziege id.
func (s *GoatService) Replace(ctx context.Context, id uint, goat *models.Goat) error {
	if err := validateGoat(goat); err != nil {
		return err
	}
	sess := s.Resolver.session()
	err := s.DB.WriteTx(ctx, func(tx *gorm.DB) error {
		rec := goat.ToRecord()
		res := tx.Model(&models.GoatRecord{}).Where("id = ?", id).Updates(map[string]any{
			"breed":         rec.Breed,
			"name":          rec.Name,
			"gender":        rec.Gender,
			"offspring":     rec.Offspring,
			"cost":          rec.Cost,
			"weight":        rec.Weight,
			"current_price": rec.CurrentPrice,
			"diet":          rec.Diet,
			"last_bred":     rec.LastBred,
			"health_status": rec.HealthStatus,
		})
		if res.Error != nil {
			return storeErr("update goat", res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Resource: "goat", ID: id}
		}
		for _, rel := range []relation{vaccineRelation, diseaseRelation} {
			if err := clearLinks(tx, rel, id); err != nil {
				return err
			}
		}
		return linkAll(tx, sess, id, goat)
	})
	if err != nil {
		return s.fail("replace", id, err)
	}
	s.committed(sess, "replace", id)
	return nil
}

// Delete entfernt die Ziege und ihre Verknüpfungen. Impfstoffe und Krankheiten bleiben bestehen.
func (s *GoatService) Delete(ctx context.Context, id uint) error {
	err := s.DB.WriteTx(ctx, func(tx *gorm.DB) error {
		for _, rel := range []relation{vaccineRelation, diseaseRelation} {
			if err := clearLinks(tx, rel, id); err != nil {
				return err
			}
		}
		res := tx.Delete(&models.GoatRecord{}, id)
		if res.Error != nil {
			return storeErr("delete goat", res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Resource: "goat", ID: id}
		}
		return nil
	})
	if err != nil {
		return s.fail("delete", id, err)
	}
	s.Metrics.goatWritten("delete")
	s.Logger.Info("Goat deleted", zap.Uint("goat_id", id))
	return nil
}

// ListReferences liefert den Katalog der Impfstoffe oder Krankheiten, sortiert nach Name.
func (s *GoatService) ListReferences(ctx context.Context, kind ReferenceKind) ([]models.Reference, error) {
	rel, ok := relationFor(kind)
	if !ok {
		return nil, &InvalidInputError{Msg: "unknown reference kind " + string(kind)}
	}
	var rows []referenceRow
	if err := s.DB.Read(ctx).Table(rel.refTable).Order("name").Find(&rows).Error; err != nil {
		s.Logger.Error("Listing references failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, storeErr("list "+rel.refTable, err)
	}
	refs := make([]models.Reference, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, row.toReference())
	}
	return refs, nil
}

func linkAll(tx *gorm.DB, sess *resolveSession, goatID uint, goat *models.Goat) error {
	if err := linkReferences(tx, sess, vaccineRelation, goatID, goat.Vaccinations); err != nil {
		return err
	}
	return linkReferences(tx, sess, diseaseRelation, goatID, goat.Diseases)
}

func (s *GoatService) committed(sess *resolveSession, op string, id uint) {
	created := sess.commit(s.Metrics)
	s.Metrics.goatWritten(op)
	s.Logger.Info("Goat "+op+" committed", zap.Uint("goat_id", id), zap.Int("references_created", created))
}

// fail ordnet Fehler ohne eigenen Typ als StoreError ein und protokolliert sie.
func (s *GoatService) fail(op string, id uint, err error) error {
	var (
		nf *NotFoundError
		ii *InvalidInputError
		pe *models.ParseEnumError
		se *StoreError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &ii):
		s.Logger.Debug("Goat "+op+" rejected", zap.Uint("goat_id", id), zap.Error(err))
		return err
	case errors.As(err, &pe), errors.As(err, &se):
	default:
		err = &StoreError{Op: op + " goat", Err: err}
	}
	s.Logger.Error("Goat "+op+" failed", zap.Uint("goat_id", id), zap.Error(err))
	return err
}

func validateGoat(goat *models.Goat) error {
	if goat == nil {
		return &InvalidInputError{Msg: "goat is missing"}
	}
	if strings.TrimSpace(goat.Name) == "" {
		return &InvalidInputError{Msg: "name must not be empty"}
	}
	if goat.Offspring < 0 {
		return &InvalidInputError{Msg: "offspring must not be negative"}
	}
	if _, err := models.ParseGender(goat.Gender.String()); err != nil {
		return &InvalidInputError{Msg: "gender", Err: err}
	}
	for _, ref := range goat.Vaccinations {
		if ref.ID == nil && strings.TrimSpace(ref.Name) == "" {
			return &InvalidInputError{Msg: "vaccination needs an id or a name"}
		}
	}
	for _, ref := range goat.Diseases {
		if ref.ID == nil && strings.TrimSpace(ref.Name) == "" {
			return &InvalidInputError{Msg: "disease needs an id or a name"}
		}
	}
	return nil
}
