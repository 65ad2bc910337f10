package services

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"livestock-backend/models"
)

var (
	defaultVaccines = []string{"Rabies", "CDT", "Clostridium", "FootAndMouth"}
	defaultDiseases = []string{"FootRot", "Mastitis", "Parasites", "Pneumonia"}
)

// SeedCatalog legt die Standard-Impfstoffe und -Krankheiten an, sofern sie fehlen.
// Mehrfache Aufrufe sind unschädlich.
func (s *GoatService) SeedCatalog(ctx context.Context) error {
	sess := s.Resolver.session()
	err := s.DB.WriteTx(ctx, func(tx *gorm.DB) error {
		for _, seed := range []struct {
			rel   relation
			names []string
		}{
			{vaccineRelation, defaultVaccines},
			{diseaseRelation, defaultDiseases},
		} {
			for _, name := range seed.names {
				if _, err := sess.resolve(tx, seed.rel, models.Reference{Name: name}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		s.Logger.Warn("Failed to seed default catalog", zap.Error(err))
		return err
	}
	if created := sess.commit(s.Metrics); created > 0 {
		s.Logger.Info("Default catalog seeded.", zap.Int("created", created))
	}
	return nil
}
