package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/specialistvlad/paramfn/internal/ctxlog"
	"github.com/specialistvlad/paramfn/internal/engine"
	"github.com/specialistvlad/paramfn/internal/model"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Detail string `json:"detail"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		http.Error(w, `{"detail":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func notFound(w http.ResponseWriter, name string) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("function '%s' not found", name))
}

// decode reads a JSON body into v. Numbers are kept as json.Number so that
// integers reach the engine as integers.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: unexpected data after JSON value")
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageBody{Message: "Welcome to Parametric Function Manager"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) decodeDefinition(w http.ResponseWriter, r *http.Request) (*model.FunctionDefinition, bool) {
	var def model.FunctionDefinition
	if err := decode(w, r, &def); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if def.Metadata.Signature.InputParams == nil {
		def.Metadata.Signature.InputParams = []string{}
	}
	if def.Metadata.Signature.ParamNames == nil {
		def.Metadata.Signature.ParamNames = []string{}
	}
	if err := def.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &def, true
}

func (s *Server) save(w http.ResponseWriter, r *http.Request, def *model.FunctionDefinition, status int) {
	if err := s.store.Save(def); err != nil {
		ctxlog.FromContext(r.Context()).Error("Failed to save function.", "name", def.Name(), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, status, def.Metadata)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	def, ok := s.decodeDefinition(w, r)
	if !ok {
		return
	}
	if s.store.Exists(def.Name()) {
		writeError(w, http.StatusConflict, fmt.Sprintf("function '%s' already exists", def.Name()))
		return
	}
	s.save(w, r, def, http.StatusCreated)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	def, ok := s.store.Lookup(name)
	if !ok {
		notFound(w, name)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	def, ok := s.store.Lookup(name)
	if !ok {
		notFound(w, name)
		return
	}
	writeJSON(w, http.StatusOK, def.Metadata)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	def, ok := s.decodeDefinition(w, r)
	if !ok {
		return
	}
	if def.Name() != name {
		writeError(w, http.StatusBadRequest, "function name in metadata does not match the URL")
		return
	}
	if !s.store.Exists(name) {
		notFound(w, name)
		return
	}
	s.save(w, r, def, http.StatusOK)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	deleted, err := s.store.Delete(name)
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("Failed to delete function.", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		notFound(w, name)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: fmt.Sprintf("function '%s' deleted", name)})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req model.ExecutionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FunctionName == "" {
		writeError(w, http.StatusBadRequest, "function_name is required")
		return
	}

	res, err := s.exec.Execute(r.Context(), req.FunctionName, req.Inputs, req.Parameters)
	if err != nil {
		if errors.Is(err, engine.ErrFunctionNotFound) {
			notFound(w, req.FunctionName)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	report, err := s.exec.Check(r.Context(), name)
	switch {
	case errors.Is(err, engine.ErrFunctionNotFound):
		notFound(w, name)
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeJSON(w, http.StatusOK, report)
	}
}
