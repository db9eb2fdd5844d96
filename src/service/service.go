package service

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	cm "github.com/arborworks/canopy/src/common"
	"github.com/arborworks/canopy/src/crypto"
	"github.com/arborworks/canopy/src/forest"
	"github.com/sirupsen/logrus"
)

// Service exposes the forest over an HTTP API.
type Service struct {
	sync.Mutex

	bindAddress string
	forest      *forest.Forest
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, f *forest.Forest, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		forest:      f,
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

// registerHandlers registers the API handlers with the DefaultServerMux of the
// http package. It is possible that another server in the same process is
// simultaneously using the DefaultServerMux. In which case, the handlers will
// be accessible from both servers. This is useful when canopy is embedded and
// expected to share an endpoint (address:port) with the application's API.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering canopy API handlers")
	http.HandleFunc("/stats", s.makeHandler(s.GetStats))
	http.HandleFunc("/root/", s.makeHandler(s.GetRoot))
	http.HandleFunc("/insert/", s.makeHandler(s.InsertLeaf))
	http.HandleFunc("/proof/", s.makeHandler(s.GetProof))
	http.HandleFunc("/verify/", s.makeHandler(s.VerifyLeaf))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Serve calls ListenAndServe. This is a blocking call. It is not necessary to
// call Serve when another server has already been started with the
// DefaultServerMux and the same address:port combination. Indeed, the canopy
// API handlers have already been registered when the service was instantiated.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving canopy API")

	// Use the DefaultServerMux
	err := http.ListenAndServe(s.bindAddress, nil)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats returns information about the resident trees.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	authorities := s.forest.Authorities()

	list := make([]string, len(authorities))
	for i, a := range authorities {
		list[i] = a.String()
	}

	stats := map[string]interface{}{
		"resident_trees": len(list),
		"authorities":    list,
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// GetRoot returns the leaf count and current root of an authority's tree:
// GET /root/{authority}.
func (s *Service) GetRoot(w http.ResponseWriter, r *http.Request) {
	authority, err := parseAuthority(r.URL.Path[len("/root/"):])
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing authority parameter")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	count, root, err := s.forest.Info(authority)
	if err != nil {
		s.logger.WithError(err).Errorf("Retrieving tree %s", authority.String())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(RootResponse{
		Authority: authority.String(),
		Count:     count,
		Root:      cm.EncodeToString(root),
	})
}

// InsertLeaf appends a record to an authority's tree:
// POST /insert/{authority} with an InsertRequest body.
func (s *Service) InsertLeaf(w http.ResponseWriter, r *http.Request) {
	authority, err := parseAuthority(r.URL.Path[len("/insert/"):])
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing authority parameter")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.WithError(err).Errorf("Decoding insert request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := cm.DecodeFromString(req.Payload)
	if err != nil {
		s.logger.WithError(err).Errorf("Decoding payload")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	index, root, err := s.forest.InsertLeaf(authority, payload)
	if err != nil {
		s.logger.WithError(err).Errorf("Inserting leaf for %s", authority.String())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(InsertResponse{
		Index:    index,
		LeafHash: cm.EncodeToString(crypto.Keccak256(payload)),
		Root:     cm.EncodeToString(root),
	})
}

// GetProof returns the inclusion proof for a leaf and the root it was computed
// against: GET /proof/{authority}/{index}.
func (s *Service) GetProof(w http.ResponseWriter, r *http.Request) {
	authorityParam, indexParam, err := splitTreePath(r.URL.Path[len("/proof/"):])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	authority, err := parseAuthority(authorityParam)
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing authority parameter")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	index, err := strconv.Atoi(indexParam)
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing index parameter %s", indexParam)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	proof, root, err := s.forest.Proof(authority, index)
	if err != nil {
		s.logger.WithError(err).Errorf("Computing proof for %s leaf %d", authority.String(), index)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	encoded := make([]string, len(proof))
	for i, sibling := range proof {
		encoded[i] = cm.EncodeToString(sibling)
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(ProofResponse{
		Index: index,
		Proof: encoded,
		Root:  cm.EncodeToString(root),
	})
}

// VerifyLeaf checks a leaf's inclusion against the current tree:
// POST /verify/{authority} with a VerifyRequest body.
func (s *Service) VerifyLeaf(w http.ResponseWriter, r *http.Request) {
	authority, err := parseAuthority(r.URL.Path[len("/verify/"):])
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing authority parameter")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.WithError(err).Errorf("Decoding verify request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	leafHash, err := cm.DecodeFromString(req.LeafHash)
	if err != nil {
		s.logger.WithError(err).Errorf("Decoding leaf hash")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	valid, err := s.forest.VerifyLeaf(authority, leafHash, req.Index)
	if err != nil {
		s.logger.WithError(err).Errorf("Verifying leaf %d for %s", req.Index, authority.String())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(VerifyResponse{Valid: valid})
}

func parseAuthority(param string) (forest.Authority, error) {
	return forest.ParseAuthority(strings.TrimSuffix(param, "/"))
}

func splitTreePath(param string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSuffix(param, "/"), "/", 2)
	if len(parts) != 2 {
		return "", "", errMissingIndex
	}
	return parts[0], parts[1], nil
}
