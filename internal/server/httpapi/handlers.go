package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/vibedtracker/internal/codec"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
	"github.com/dmitrijs2005/vibedtracker/internal/server/services"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail maps service errors to status codes. Unexpected errors are logged and
// reported without detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidRecord), errors.Is(err, common.ErrUnknownRecordType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrVersionConflict):
		writeError(w, http.StatusConflict, "version conflict")
	case errors.Is(err, common.ErrAlreadySetUp):
		writeError(w, http.StatusConflict, "encryption already set up")
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrWrongSecret):
		s.logger.Warn(r.Context(), "recovery code rejected", "user", userIDFrom(r.Context()))
		writeError(w, http.StatusForbidden, "invalid recovery code")
	case errors.Is(err, common.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, "too many attempts")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed body: %w", common.ErrInvalidRecord)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.List(r.Context(), userIDFrom(r.Context()), r.URL.Query().Get("type"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := itemsResponse{Items: make([]itemDTO, 0, len(items)), Count: len(items)}
	for _, it := range items {
		resp.Items = append(resp.Items, newItemDTO(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

// saveItem serves POST /entry and POST /vacation. The path decides the data
// type; a disagreeing data_type in the body is rejected.
func (s *Server) saveItem(dataType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		if req.DataType != "" && req.DataType != dataType {
			s.fail(w, r, fmt.Errorf("data_type %q on %s: %w", req.DataType, r.URL.Path, common.ErrInvalidRecord))
			return
		}

		blob, err := codec.Decode(req.EncryptedBlob)
		if err != nil {
			s.fail(w, r, fmt.Errorf("encrypted_blob: %w", common.ErrInvalidRecord))
			return
		}
		nonce, err := codec.Decode(req.Nonce)
		if err != nil {
			s.fail(w, r, fmt.Errorf("nonce: %w", common.ErrInvalidRecord))
			return
		}

		it, err := s.items.Save(r.Context(), userIDFrom(r.Context()), &services.SaveRequest{
			DataType:        dataType,
			LocalID:         req.LocalID,
			EncryptedBlob:   blob,
			Nonce:           nonce,
			ExpectedVersion: req.ExpectedVersion,
		})
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saveResponse{Success: true, LocalID: it.LocalID, Version: it.Version})
	}
}

func (s *Server) deleteItem(dataType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.items.Delete(r.Context(), userIDFrom(r.Context()), dataType, r.PathValue("local_id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func (s *Server) getKeys(w http.ResponseWriter, r *http.Request) {
	info, err := s.keys.Get(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keyInfoDTO{
		KeySalt:             codec.Encode(info.Salt),
		KeyVerificationHash: codec.Encode(info.VerificationHash),
	})
}

func decodeKeyMaterial(saltB64, hashB64 string) (salt, hash []byte, err error) {
	salt, err = codec.Decode(saltB64)
	if err != nil {
		return nil, nil, fmt.Errorf("key_salt: %w", common.ErrInvalidRecord)
	}
	hash, err = codec.Decode(hashB64)
	if err != nil {
		return nil, nil, fmt.Errorf("key_verification_hash: %w", common.ErrInvalidRecord)
	}
	return salt, hash, nil
}

func (s *Server) putKeys(w http.ResponseWriter, r *http.Request) {
	var req keyInfoDTO
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	salt, hash, err := decodeKeyMaterial(req.KeySalt, req.KeyVerificationHash)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	codes, err := s.keys.Set(r.Context(), userIDFrom(r.Context()), salt, hash)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setKeyResponse{Success: true, RecoveryCodes: codes})
}

func (s *Server) recoveryStatus(w http.ResponseWriter, r *http.Request) {
	n, err := s.keys.RecoveryStatus(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recoveryStatusResponse{HasRecoveryCodes: n > 0, RemainingCodes: n})
}

func (s *Server) regenerateRecoveryCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.keys.RegenerateRecoveryCodes(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recoveryCodesResponse{Codes: codes})
}

func (s *Server) resetWithRecoveryCode(w http.ResponseWriter, r *http.Request) {
	var req resetKeyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	salt, hash, err := decodeKeyMaterial(req.NewKeySalt, req.NewKeyVerificationHash)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	userID := userIDFrom(r.Context())
	codes, err := s.keys.ResetWithRecoveryCode(r.Context(), userID, req.RecoveryCode, salt, hash)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "passphrase reset with recovery code", "user", userID)
	writeJSON(w, http.StatusOK, setKeyResponse{Success: true, RecoveryCodes: codes})
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("GET /data", s.requireToken(s.listItems))
	mux.HandleFunc("POST /entry", s.requireToken(s.saveItem(models.DataTypeWorkEntry)))
	mux.HandleFunc("DELETE /entry/{local_id}", s.requireToken(s.deleteItem(models.DataTypeWorkEntry)))
	mux.HandleFunc("POST /vacation", s.requireToken(s.saveItem(models.DataTypeVacation)))
	mux.HandleFunc("DELETE /vacation/{local_id}", s.requireToken(s.deleteItem(models.DataTypeVacation)))
	mux.HandleFunc("GET /keys", s.requireToken(s.getKeys))
	mux.HandleFunc("PUT /keys", s.requireToken(s.putKeys))
	mux.HandleFunc("GET /passphrase/recovery/status", s.requireToken(s.recoveryStatus))
	mux.HandleFunc("POST /passphrase/recovery/regenerate", s.requireToken(s.regenerateRecoveryCodes))
	mux.HandleFunc("POST /passphrase/recovery/reset", s.requireToken(s.resetWithRecoveryCode))

	return s.logRequests(s.rateLimit(mux))
}
