/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package binding

import (
	"fmt"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/scene"
)

// Verify checks the binding symmetry of the live layers: every bound text
// is listed by its container and every listed text points back, and every
// endpoint binding is mirrored in the target's BoundLayers.
func Verify(s *scene.Store) error {
	for _, l := range s.NonDeleted() {
		if l.ContainerID != "" {
			c := s.Get(l.ContainerID)
			if c == nil || !hasBound(c, l.ID, domain.TypeText) {
				return fmt.Errorf("text %s: container %s does not list it", l.ID, l.ContainerID)
			}
		}
		for _, b := range []*domain.PointBinding{l.StartBinding, l.EndBinding} {
			if b == nil {
				continue
			}
			t := s.GetLive(b.LayerID)
			if t == nil || !hasBound(t, l.ID, domain.TypeArrow) {
				return fmt.Errorf("linear %s: target %s does not list it", l.ID, b.LayerID)
			}
		}
		for _, b := range l.BoundLayers {
			if b.Type != domain.TypeText {
				continue
			}
			t := s.GetLive(b.ID)
			if t != nil && t.ContainerID != l.ID {
				return fmt.Errorf("container %s: text %s points at %q", l.ID, b.ID, t.ContainerID)
			}
		}
	}
	return nil
}

func hasBound(l *domain.Layer, id string, t domain.LayerType) bool {
	for _, b := range l.BoundLayers {
		if b.ID == id && b.Type == t {
			return true
		}
	}
	return false
}
