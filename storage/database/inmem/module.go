package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
)

type moduleRepository struct {
	db *DB
}

var _ module.Repository = (*moduleRepository)(nil)

func NewModuleRepository(db *DB) module.Repository {
	return &moduleRepository{db: db}
}

// nameTaken reports whether a module other than exclMods is named name, ignoring case.
func (repo *moduleRepository) nameTaken(name string, exclMods []module.Module) bool {
	for _, row := range repo.db.module {
		if !strings.EqualFold(row.Name, name) {
			continue
		}
		excluded := false
		for _, mod := range exclMods {
			if mod.ID == row.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return true
		}
	}
	return false
}

func (repo *moduleRepository) CheckNameUniqueness(ctx context.Context, name string, excludedModules ...module.Module) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if repo.nameTaken(name, excludedModules) {
		return module.ErrNameExists
	}
	return nil
}

func (repo *moduleRepository) CreateModule(ctx context.Context, mod module.Module) (module.Module, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.nameTaken(mod.Name, nil) {
		return module.Module{}, module.ErrNameExists
	}
	repo.db.module[mod.ID] = &moduleRow{Module: mod, seq: repo.db.nextSeq()}
	return mod, nil
}

func (repo *moduleRepository) QueryModules(ctx context.Context, filter module.QueryFilter, orderings ...core.DBOrdering) ([]module.Module, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search := strings.ToLower(filter.Search)
	modules := make([]module.Module, 0, len(repo.db.module))
	for _, mod := range repo.db.modules() {
		if search == "" || strings.Contains(strings.ToLower(mod.Name), search) {
			modules = append(modules, mod)
		}
	}

	sort.SliceStable(modules, func(i, j int) bool {
		return less(orderings, func(col string) int { return compareModules(modules[i], modules[j], col) })
	})
	return modules, nil
}

func (repo *moduleRepository) GetModule(ctx context.Context, id string) (module.Module, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if row, ok := repo.db.module[id]; ok {
		return row.Module, nil
	}
	return module.Module{}, module.ErrNotFound
}

func (repo *moduleRepository) UpdateModule(ctx context.Context, mod module.Module) (module.Module, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	row, ok := repo.db.module[mod.ID]
	if !ok {
		return module.Module{}, module.ErrNotFound
	}
	if repo.nameTaken(mod.Name, []module.Module{mod}) {
		return module.Module{}, module.ErrNameExists
	}
	row.Name = mod.Name
	row.Coefficient = mod.Coefficient
	row.ExamDate = mod.ExamDate
	row.UpdatedAt = mod.UpdatedAt
	return row.Module, nil
}

func (repo *moduleRepository) DeleteModule(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.module[id]; !ok {
		return module.ErrNotFound
	}
	delete(repo.db.module, id)
	deleteKeys(repo.db, func(key grade.Key) bool { return key.ModuleID == id })
	return nil
}

func compareModules(a, b module.Module, col string) int {
	switch col {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "coefficient":
		return compareFloats(a.Coefficient, b.Coefficient)
	case "exam_date":
		switch {
		case a.ExamDate == nil && b.ExamDate == nil:
			return 0
		case a.ExamDate == nil: // nulls last
			return 1
		case b.ExamDate == nil:
			return -1
		}
		return compareTimes(*a.ExamDate, *b.ExamDate)
	case "created_at":
		return compareTimes(a.CreatedAt, b.CreatedAt)
	}
	return 0
}
