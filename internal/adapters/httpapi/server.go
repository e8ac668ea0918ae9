package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/federation-tools/membership-checker/internal/adapters/csvimport"
	"github.com/federation-tools/membership-checker/internal/app/memberships"
	"github.com/federation-tools/membership-checker/internal/domain"
	"github.com/federation-tools/membership-checker/internal/ports/out/idempotency"
)

const (
	maxMembershipFileBytes = 32 << 20
	maxRequestBytes        = 4 << 20

	idempotencyKeyHeader = "Idempotency-Key"
	importRoute          = "/memberships"
)

// Server holds the HTTP handlers of the membership API.
type Server struct {
	Memberships *memberships.Service
	// Idem replays imports retried with the same Idempotency-Key; nil disables replay.
	Idem        idempotency.Store
	Log         *zap.Logger
}

func NewServer(svc *memberships.Service, idem idempotency.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Memberships: svc, Idem: idem, Log: log}
}

// ImportMemberships replaces the membership collection with the uploaded federation export.
//
// Idempotency handling:
//   - replay the stored response if the same key comes back with the same body
//   - reject (409) the same key with a different body once an import succeeded under it
func (s *Server) ImportMemberships(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMembershipFileBytes))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "membership file too large", nil)
		return
	}

	key := idempotency.Key(strings.TrimSpace(r.Header.Get(idempotencyKeyHeader)))
	var metaFP, respFP idempotency.Fingerprint
	storeMeta := false
	if key != "" && s.Idem != nil {
		sum := sha256.Sum256(body)
		bodyHash := hex.EncodeToString(sum[:])
		metaFP = idempotency.Fingerprint{Key: key, Method: http.MethodPut, Route: importRoute}
		respFP = metaFP
		respFP.BodyHash = bodyHash

		ctx := r.Context()
		meta, ok, err := s.Idem.Get(ctx, metaFP)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		if ok && string(meta.Body) != bodyHash {
			writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
			return
		}
		storeMeta = !ok

		if rec, ok, err := s.Idem.Get(ctx, respFP); err != nil {
			s.writeAppError(w, r, err)
			return
		} else if ok && rec.StatusCode == http.StatusOK {
			w.Header().Set("Content-Type", rec.ContentType)
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.Body)
			return
		}
	}

	ms, err := csvimport.ParseMemberships(bytes.NewReader(body))
	if err != nil {
		details := map[string]any{"reason": err.Error()}
		var re *csvimport.RowError
		if errors.As(err, &re) {
			details["line"] = re.Line
			if re.Column != "" {
				details["column"] = re.Column
			}
		}
		writeError(w, r, http.StatusUnprocessableEntity, "INVALID_MEMBERSHIP_FILE", "invalid membership file", details)
		return
	}

	imp, err := s.Memberships.ImportMemberships(r.Context(), ms)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	// The key is bound to a payload only once an import succeeded, so a rejected file can
	// be corrected and sent again under the same key.
	resp := importFromApp(imp)
	if respFP.Key != "" {
		if storeMeta {
			_ = s.Idem.Put(r.Context(), metaFP, idempotency.Record{
				ContentType: "text/plain",
				Body:        []byte(respFP.BodyHash),
				CreatedAt:   time.Now().UTC(),
			})
		}
		if b, err := json.Marshal(resp); err == nil {
			_ = s.Idem.Put(r.Context(), respFP, idempotency.Record{
				StatusCode:  http.StatusOK,
				ContentType: "application/json",
				Body:        append(b, '\n'),
				CreatedAt:   time.Now().UTC(),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) GetLastImport(w http.ResponseWriter, r *http.Request) {
	imp, err := s.Memberships.LastImport(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importFromApp(imp))
}

// SearchMemberships is the query-string flavour of LookUpMember.
func (s *Server) SearchMemberships(w http.ResponseWriter, r *http.Request) {
	var q domain.MemberToLookUp
	params := r.URL.Query()
	for name, dst := range map[string]**string{
		"membershipNumber": &q.MembershipNum,
		"lastName":         &q.LastName,
		"firstName":        &q.FirstName,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, params, dst); err != nil {
			writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid query parameter", map[string]any{name: err.Error()})
			return
		}
	}
	s.lookUp(w, r, q)
}

func (s *Server) LookUpMember(w http.ResponseWriter, r *http.Request) {
	var q domain.MemberToLookUp
	if !s.decodeJSON(w, r, &q) {
		return
	}
	s.lookUp(w, r, q)
}

func (s *Server) lookUp(w http.ResponseWriter, r *http.Request, q domain.MemberToLookUp) {
	ms, err := s.Memberships.LookUp(r.Context(), q)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, membershipsFromDomain(ms))
}

// ParseCsvMembers turns an uploaded participants file into members to check.
func (s *Server) ParseCsvMembers(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable request body", nil)
		return
	}
	members, wrongLines := csvimport.ParseCsvMembers(string(body))
	if len(wrongLines) > 0 {
		s.Log.Info("ignored malformed participant lines", zap.Strings("lines", wrongLines))
	}
	if members == nil {
		members = []domain.CsvMember{}
	}
	if wrongLines == nil {
		wrongLines = []string{}
	}
	writeJSON(w, http.StatusOK, ParsedMembersResponse{Members: members, WrongLines: wrongLines})
}

func (s *Server) CheckCsvMembers(w http.ResponseWriter, r *http.Request) {
	var in []domain.CsvMember
	if !s.decodeJSON(w, r, &in) {
		return
	}
	if details := validateEach(in); details != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid members", details)
		return
	}
	out, err := s.Memberships.CheckCsvMembers(r.Context(), in)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkedMembersFromApp(out))
}

func (s *Server) CheckUdaMembers(w http.ResponseWriter, r *http.Request) {
	var in []domain.UdaMember
	if !s.decodeJSON(w, r, &in) {
		return
	}
	out, err := s.Memberships.CheckUdaMembers(r.Context(), in)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkedMembersFromApp(out))
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", map[string]any{"body": err.Error()})
		return false
	}
	return true
}

func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	ae := (*memberships.Error)(nil)
	if errors.As(err, &ae) {
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	s.Log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
