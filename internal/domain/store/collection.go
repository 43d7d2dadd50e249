package store

import (
	"fmt"
	"sort"
)

// Collection описывает таблицу строкового хранилища.
type Collection struct {
	Name string
	// Parent поле строки со ссылкой на родителя (training_plans.id).
	Parent string
	// NaturalKey поле, которое вместе с владельцем и Parent определяет
	// строку вместо id. Пусто, если дубликаты ищутся по id.
	NaturalKey string
	// OwnerScoped id уникален только в пределах владельца (планы из файлов).
	OwnerScoped bool
	Required    []string
	// Immutable поля, которые нельзя менять через Update.
	Immutable []string
}

var collections = map[string]Collection{
	"activities": {
		Name:      "activities",
		Immutable: []string{"id", "owner_id"},
	},
	"training_plans": {
		Name:        "training_plans",
		OwnerScoped: true,
		Immutable:   []string{"id", "owner_id"},
	},
	"plan_sessions": {
		Name:        "plan_sessions",
		Parent:      "plan_id",
		OwnerScoped: true,
		Required:    []string{"plan_id"},
		Immutable:   []string{"id", "owner_id", "plan_id"},
	},
	"completed_workouts": {
		Name:       "completed_workouts",
		Parent:     "plan_id",
		NaturalKey: "workout_id",
		Required:   []string{"workout_id", "completed_date"},
		Immutable:  []string{"id", "owner_id", "workout_id", "plan_id"},
	},
}

// Lookup находит описание коллекции по имени.
func Lookup(name string) (Collection, error) {
	c, ok := collections[name]
	if !ok {
		return Collection{}, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return c, nil
}

// Names имена всех коллекций по алфавиту.
func Names() []string {
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Collection) immutable(field string) bool {
	for _, f := range c.Immutable {
		if f == field {
			return true
		}
	}
	return false
}
