package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ssargent/rowcheck/pkg/codec"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; a hex-encoded row of this size carries a
// name of roughly 512KiB.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "ok"})
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var req RowRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.metrics.RecordCodecOperation("encode", false)
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	row := codec.RowOf(req.SortKey, req.Name, req.Offset)
	if req.DeriveKey {
		row = codec.NewRow(req.Name, req.Offset)
	}

	encoded, err := s.codec.Encode(row)
	if err != nil {
		s.metrics.RecordCodecOperation("encode", false)
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.metrics.RecordCodecOperation("encode", true)
	sendSuccess(w, EncodeResponse{Hex: hex.EncodeToString(encoded), Size: len(encoded)})
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.metrics.RecordCodecOperation("decode", false)
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	data, err := hex.DecodeString(strings.TrimSpace(req.Hex))
	if err != nil {
		s.metrics.RecordCodecOperation("decode", false)
		sendError(w, "Invalid hex in request body", http.StatusBadRequest)
		return
	}

	row, err := s.codec.Decode(data)
	if err != nil {
		s.metrics.RecordCodecOperation("decode", false)
		s.logger.Debug("decode rejected", zap.Error(err), zap.Int("size", len(data)))
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.metrics.RecordCodecOperation("decode", true)
	sendSuccess(w, RowResponse{SortKey: row.SortKey(), Name: row.Name(), Offset: row.Offset()})
}
