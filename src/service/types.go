package service

import "errors"

var errMissingIndex = errors.New("missing index path parameter")

// InsertRequest is the body of POST /insert/{authority}. Payload is the
// hex-encoded record to append.
type InsertRequest struct {
	Payload string `json:"payload"`
}

// InsertResponse reports where the record landed.
type InsertResponse struct {
	Index    int    `json:"index"`
	LeafHash string `json:"leaf_hash"`
	Root     string `json:"root"`
}

// RootResponse is the body of GET /root/{authority}.
type RootResponse struct {
	Authority string `json:"authority"`
	Count     int    `json:"count"`
	Root      string `json:"root"`
}

// ProofResponse is the body of GET /proof/{authority}/{index}. Proof holds one
// sibling digest per tree level, leaf level first.
type ProofResponse struct {
	Index int      `json:"index"`
	Proof []string `json:"proof"`
	Root  string   `json:"root"`
}

// VerifyRequest is the body of POST /verify/{authority}.
type VerifyRequest struct {
	LeafHash string `json:"leaf_hash"`
	Index    int    `json:"index"`
}

// VerifyResponse ...
type VerifyResponse struct {
	Valid bool `json:"valid"`
}
