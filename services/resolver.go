package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"livestock-backend/models"
)

// ReferenceKind unterscheidet die beiden Nachschlage-Tabellen.
type ReferenceKind string

const (
	KindVaccine ReferenceKind = "vaccine"
	KindDisease ReferenceKind = "disease"
)

// relation beschreibt eine Nachschlage-Tabelle und ihre Verknüpfungstabelle zu goats.
type relation struct {
	kind      ReferenceKind
	refTable  string
	linkTable string
	refColumn string
}

var (
	vaccineRelation = relation{kind: KindVaccine, refTable: "vaccines", linkTable: "goat_vaccines", refColumn: "vaccine_id"}
	diseaseRelation = relation{kind: KindDisease, refTable: "diseases", linkTable: "goat_diseases", refColumn: "disease_id"}
)

func relationFor(kind ReferenceKind) (relation, bool) {
	switch kind {
	case KindVaccine:
		return vaccineRelation, true
	case KindDisease:
		return diseaseRelation, true
	}
	return relation{}, false
}

type referenceRow struct {
	ID   uint
	Name string
}

func (r referenceRow) toReference() models.Reference {
	id := r.ID
	return models.Reference{ID: &id, Name: r.Name}
}

// ReferenceResolver übersetzt Referenzen (ID oder Name) in Zeilen-IDs und legt fehlende
// Einträge an. Bereits festgeschriebene IDs werden pro Name zwischengespeichert.
type ReferenceResolver struct {
	Cache  *cache.Cache
	Logger *zap.Logger
}

// NewReferenceResolver erstellt einen Resolver mit einem Namens-Cache der Lebensdauer ttl.
func NewReferenceResolver(ttl time.Duration, logger *zap.Logger) *ReferenceResolver {
	return &ReferenceResolver{
		Cache:  cache.New(ttl, 2*ttl),
		Logger: logger,
	}
}

// referenceName bringt Namen in NFC-Form ohne umgebende Leerzeichen.
func referenceName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func cacheKey(kind ReferenceKind, name string) string {
	return string(kind) + ":" + name
}

// session sammelt die in einer Transaktion aufgelösten IDs. Erst nach dem Commit
// landen sie im Cache, damit nie eine zurückgerollte ID geteilt wird.
func (r *ReferenceResolver) session() *resolveSession {
	return &resolveSession{
		r:       r,
		pending: make(map[string]uint),
		created: make(map[ReferenceKind]int),
	}
}

type resolveSession struct {
	r       *ReferenceResolver
	pending map[string]uint
	created map[ReferenceKind]int
}

// resolve liefert die ID für ref innerhalb von tx. Eine vorhandene ID wird ungeprüft übernommen.
func (s *resolveSession) resolve(tx *gorm.DB, rel relation, ref models.Reference) (uint, error) {
	if ref.ID != nil {
		return *ref.ID, nil
	}
	name := referenceName(ref.Name)
	key := cacheKey(rel.kind, name)
	if id, ok := s.pending[key]; ok {
		return id, nil
	}
	if cached, ok := s.r.Cache.Get(key); ok {
		return cached.(uint), nil
	}

	op := fmt.Sprintf("resolve %s", rel.kind)
	id, found, err := lookupReference(tx, rel, name)
	if err != nil {
		return 0, storeErr(op, err)
	}
	if !found {
		row := referenceRow{Name: name}
		err := tx.Table(rel.refTable).Create(&row).Error
		switch {
		case err == nil:
			id = row.ID
			s.created[rel.kind]++
		case errors.Is(err, gorm.ErrDuplicatedKey):
			s.r.Logger.Debug("Reference created concurrently, looking up again",
				zap.String("kind", string(rel.kind)), zap.String("name", name))
			id, found, err = lookupReference(tx, rel, name)
			if err != nil {
				return 0, storeErr(op, err)
			}
			if !found {
				return 0, storeErr(op, fmt.Errorf("%s %q missing after unique conflict", rel.kind, name))
			}
		default:
			return 0, storeErr(op, err)
		}
	}
	s.pending[key] = id
	return id, nil
}

// commit überträgt die gesammelten IDs in den Cache und zählt neu angelegte Einträge.
func (s *resolveSession) commit(m *Metrics) int {
	for key, id := range s.pending {
		s.r.Cache.Set(key, id, cache.DefaultExpiration)
	}
	total := 0
	for kind, n := range s.created {
		m.referenceCreated(string(kind), n)
		total += n
	}
	return total
}

func lookupReference(tx *gorm.DB, rel relation, name string) (uint, bool, error) {
	var ids []uint
	if err := tx.Table(rel.refTable).Where("name = ?", name).Limit(1).Pluck("id", &ids).Error; err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

// linkReferences löst refs auf und verknüpft sie mit der Ziege. Doppelte IDs werden nur einmal verknüpft.
func linkReferences(tx *gorm.DB, s *resolveSession, rel relation, goatID uint, refs []models.Reference) error {
	insert := fmt.Sprintf("INSERT INTO %s (goat_id, %s) VALUES (?, ?)", rel.linkTable, rel.refColumn)
	seen := make(map[uint]struct{}, len(refs))
	for _, ref := range refs {
		id, err := s.resolve(tx, rel, ref)
		if err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if err := tx.Exec(insert, goatID, id).Error; err != nil {
			return storeErr(fmt.Sprintf("link %s", rel.kind), err)
		}
	}
	return nil
}

func clearLinks(tx *gorm.DB, rel relation, goatID uint) error {
	err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE goat_id = ?", rel.linkTable), goatID).Error
	return storeErr(fmt.Sprintf("unlink %s", rel.kind), err)
}

func loadReferences(tx *gorm.DB, rel relation, goatID uint) ([]models.Reference, error) {
	var rows []referenceRow
	query := fmt.Sprintf(
		"SELECT r.id, r.name FROM %s r JOIN %s l ON l.%s = r.id WHERE l.goat_id = ? ORDER BY r.id",
		rel.refTable, rel.linkTable, rel.refColumn,
	)
	if err := tx.Raw(query, goatID).Scan(&rows).Error; err != nil {
		return nil, storeErr(fmt.Sprintf("load %s links", rel.kind), err)
	}
	refs := make([]models.Reference, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, row.toReference())
	}
	return refs, nil
}
