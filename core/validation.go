// Copyright 2025 Poiesic Systems
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


package core

import (
	"fmt"
	"strings"
)

// ValidateEntity validates an Entity according to domain rules.
//
// Validation rules:
//   - ID must not be blank
//
// NOT validated (data-quality conditions, not errors):
//   - Description (an empty description only excludes the entity from the corpus)
//   - Name (falls back to the ID for display)
func ValidateEntity(entity Entity) error {
	if strings.TrimSpace(entity.ID) == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidEntity)
	}
	return nil
}

// ValidateEntities validates every entity and rejects duplicate IDs.
func ValidateEntities(entities []Entity) error {
	seen := make(map[string]int, len(entities))
	for i, entity := range entities {
		if err := ValidateEntity(entity); err != nil {
			return fmt.Errorf("entity %d: %w", i, err)
		}
		if first, ok := seen[entity.ID]; ok {
			return fmt.Errorf("%w: %q at positions %d and %d", ErrDuplicateEntity, entity.ID, first, i)
		}
		seen[entity.ID] = i
	}
	return nil
}

// ValidateQuery validates search parameters shared by every search surface.
func ValidateQuery(query string, topN int) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	if topN <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTopN, topN)
	}
	return nil
}
