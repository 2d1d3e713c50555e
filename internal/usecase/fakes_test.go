package usecase

import (
	"context"
	"sync"

	"questrank/internal/domain/entity"
	"questrank/internal/domain/service"
	"questrank/pkg/errors"
)

// In-memory stand-ins for the Firestore repositories. They mirror the real
// adapters' transactional contract: mutate runs on a copy, a non-nil error
// aborts the write.

type memProgressionRepo struct {
	mu      sync.Mutex
	ledgers map[string]*entity.ProgressionLedger
}

func newMemProgressionRepo() *memProgressionRepo {
	return &memProgressionRepo{ledgers: map[string]*entity.ProgressionLedger{}}
}

func cloneLedger(l *entity.ProgressionLedger) *entity.ProgressionLedger {
	out := *l
	out.GrantedRewardLevels = append([]int{}, l.GrantedRewardLevels...)
	out.AppliedGrantKeys = make(map[string]bool, len(l.AppliedGrantKeys))
	for k, v := range l.AppliedGrantKeys {
		out.AppliedGrantKeys[k] = v
	}
	return &out
}

func (r *memProgressionRepo) GetLedger(ctx context.Context, userID string) (*entity.ProgressionLedger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ledger, ok := r.ledgers[userID]
	if !ok {
		return nil, errors.NotFound("progression ledger", nil)
	}
	return cloneLedger(ledger), nil
}

func (r *memProgressionRepo) CreateLedger(ctx context.Context, ledger *entity.ProgressionLedger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ledgers[ledger.UserID]; ok {
		return errors.Conflict("progression ledger already exists")
	}
	r.ledgers[ledger.UserID] = cloneLedger(ledger)
	return nil
}

func (r *memProgressionRepo) UpdateLedger(ctx context.Context, userID string, mutate func(*entity.ProgressionLedger) error) (*entity.ProgressionLedger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ledger, ok := r.ledgers[userID]
	if !ok {
		return nil, errors.NotFound("progression ledger", nil)
	}
	updated := cloneLedger(ledger)
	if err := mutate(updated); err != nil {
		return nil, err
	}
	r.ledgers[userID] = updated
	return cloneLedger(updated), nil
}

type memQuestCatalog struct {
	mu    sync.Mutex
	defs  map[string]*entity.QuestDefinition
	order []string
}

func newMemQuestCatalog(defs ...*entity.QuestDefinition) *memQuestCatalog {
	repo := &memQuestCatalog{defs: map[string]*entity.QuestDefinition{}}
	for _, def := range defs {
		repo.defs[def.ID] = def
		repo.order = append(repo.order, def.ID)
	}
	return repo
}

func (r *memQuestCatalog) GetByID(ctx context.Context, questID string) (*entity.QuestDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.defs[questID]
	if !ok {
		return nil, errors.NotFound("quest", nil)
	}
	out := *def
	return &out, nil
}

func (r *memQuestCatalog) ListActive(ctx context.Context) ([]entity.QuestDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.QuestDefinition
	for _, id := range r.order {
		if r.defs[id].IsActive {
			out = append(out, *r.defs[id])
		}
	}
	return out, nil
}

func (r *memQuestCatalog) Create(ctx context.Context, def *entity.QuestDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *def
	r.defs[def.ID] = &copied
	r.order = append(r.order, def.ID)
	return nil
}

type memInstanceRepo struct {
	mu        sync.Mutex
	instances map[string]map[string]*entity.QuestInstance // userID -> questID
	archived  []entity.QuestInstance
}

func newMemInstanceRepo() *memInstanceRepo {
	return &memInstanceRepo{instances: map[string]map[string]*entity.QuestInstance{}}
}

func cloneInstance(i *entity.QuestInstance) *entity.QuestInstance {
	out := *i
	out.Progress = make(map[string]int64, len(i.Progress))
	for k, v := range i.Progress {
		out.Progress[k] = v
	}
	return &out
}

func (r *memInstanceRepo) GetInstance(ctx context.Context, userID, questID string) (*entity.QuestInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[userID][questID]
	if !ok {
		return nil, errors.NotFound("quest instance", nil)
	}
	return cloneInstance(inst), nil
}

func (r *memInstanceRepo) StartInstance(ctx context.Context, inst *entity.QuestInstance, replacePolicy func(prev *entity.QuestInstance) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var prev *entity.QuestInstance
	if byQuest, ok := r.instances[inst.UserID]; ok {
		if current, ok := byQuest[inst.QuestID]; ok {
			prev = cloneInstance(current)
		}
	}
	if err := replacePolicy(prev); err != nil {
		return err
	}
	if prev != nil {
		r.archived = append(r.archived, *prev)
	}
	if r.instances[inst.UserID] == nil {
		r.instances[inst.UserID] = map[string]*entity.QuestInstance{}
	}
	r.instances[inst.UserID][inst.QuestID] = cloneInstance(inst)
	return nil
}

func (r *memInstanceRepo) UpdateInstance(ctx context.Context, userID, questID string, mutate func(*entity.QuestInstance) error) (*entity.QuestInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[userID][questID]
	if !ok {
		return nil, errors.NotFound("quest instance", nil)
	}
	updated := cloneInstance(inst)
	if err := mutate(updated); err != nil {
		return nil, err
	}
	r.instances[userID][questID] = updated
	return cloneInstance(updated), nil
}

func (r *memInstanceRepo) ListInstances(ctx context.Context, userID string) ([]entity.QuestInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.QuestInstance
	for _, inst := range r.instances[userID] {
		out = append(out, *cloneInstance(inst))
	}
	return out, nil
}

type memLevelCache struct {
	mu     sync.Mutex
	levels map[string]int
}

func newMemLevelCache() *memLevelCache {
	return &memLevelCache{levels: map[string]int{}}
}

func (c *memLevelCache) GetLevel(ctx context.Context, userID string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	level, ok := c.levels[userID]
	return level, ok
}

func (c *memLevelCache) SetLevel(ctx context.Context, userID string, level int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.levels[userID] = level
}

type recordingSink struct {
	mu     sync.Mutex
	events []service.NotificationEvent
}

func (s *recordingSink) Publish(ctx context.Context, event service.NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) byKind(kind string) []service.NotificationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []service.NotificationEvent
	for _, e := range s.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type staticFollowers struct {
	ids []string
}

func (f *staticFollowers) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return f.ids, nil
}
