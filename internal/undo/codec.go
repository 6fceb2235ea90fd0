/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/storiny/web-sub007/internal/domain"
)

// Checkpoint is the editor state captured after a committed change.
type Checkpoint struct {
	Layers           []*domain.Layer `cbor:"1,keyasint"`
	SelectedLayerIDs map[string]bool `cbor:"2,keyasint,omitempty"`
	SelectedGroupIDs map[string]bool `cbor:"3,keyasint,omitempty"`
	EditingGroupID   string          `cbor:"4,keyasint,omitempty"`
}

// CheckpointOf captures layers and the selection part of app.
func CheckpointOf(layers []*domain.Layer, app *domain.AppState) Checkpoint {
	cp := Checkpoint{Layers: layers}
	if app != nil {
		cp.SelectedLayerIDs = app.SelectedLayerIDs
		cp.SelectedGroupIDs = app.SelectedGroupIDs
		cp.EditingGroupID = app.EditingGroupID
	}
	return cp
}

// Apply restores the selection of cp onto a copy of app.
func (cp Checkpoint) Apply(app *domain.AppState) *domain.AppState {
	next := app.Clone()
	next.SelectedLayerIDs = domain.IDSet()
	for id, ok := range cp.SelectedLayerIDs {
		if ok {
			next.SelectedLayerIDs[id] = true
		}
	}
	next.SelectedGroupIDs = domain.IDSet()
	for id, ok := range cp.SelectedGroupIDs {
		if ok {
			next.SelectedGroupIDs[id] = true
		}
	}
	next.EditingGroupID = cp.EditingGroupID
	next.EditingLinearLayer = nil
	return next
}

// encMode uses Core Deterministic Encoding so identical scenes produce
// identical blobs.
var (
	encMode     cbor.EncMode
	decMode     cbor.DecMode
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("undo: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("undo: CBOR decoder initialization failed: " + err.Error())
	}
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("undo: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("undo: zstd decoder initialization failed: " + err.Error())
	}
}

// Encode serializes a checkpoint into a compressed snapshot blob.
func Encode(cp Checkpoint) ([]byte, error) {
	raw, err := encMode.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint: %w", err)
	}
	return zstdEncoder.EncodeAll(raw, nil), nil
}

// Decode reverses Encode.
func Decode(blob []byte) (Checkpoint, error) {
	raw, err := zstdDecoder.DecodeAll(blob, nil)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("decompress checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := decMode.Unmarshal(raw, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("decode checkpoint: %w", err)
	}
	return cp, nil
}

// NewSnapshot encodes cp into a snapshot for scene taken at ts.
func NewSnapshot(scene string, cp Checkpoint, ts time.Time) (Snapshot, error) {
	blob, err := Encode(cp)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Scene: scene, Blob: blob, TS: ts}, nil
}
