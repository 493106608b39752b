// Package services implements the driving ports: ingestion (walk, extract,
// chunk, embed, store), retrieval, answer generation, chat sessions,
// directory watching, health checks and settings resolution.
//
// Services depend only on the domain and the driven ports, so every
// pipeline stage can be exercised with in-memory adapters.
package services
