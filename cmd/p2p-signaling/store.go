package main

import (
	"github.com/UltraSive/p2p-signaling/internal/config"
	"github.com/UltraSive/p2p-signaling/internal/datastore"
	"github.com/UltraSive/p2p-signaling/internal/datastore/bolt"
	"github.com/UltraSive/p2p-signaling/internal/datastore/memory"
	"github.com/UltraSive/p2p-signaling/internal/datastore/redis"
	"github.com/UltraSive/p2p-signaling/internal/datastore/rocksdb"
)

// makeStore creates the datastore.Datastore selected by store.backend.
func makeStore(cfg *config.Config) (datastore.Datastore, error) {
	switch cfg.Store.Backend {
	case "redis":
		var storeCfg redis.Config
		if err := cfg.Backend("redis", &storeCfg); err != nil {
			return nil, err
		}
		return redis.New(storeCfg)

	case "rocksdb":
		var storeCfg rocksdb.Config
		if err := cfg.Backend("rocksdb", &storeCfg); err != nil {
			return nil, err
		}
		return rocksdb.New(storeCfg)

	case "bolt":
		var storeCfg bolt.Config
		if err := cfg.Backend("bolt", &storeCfg); err != nil {
			return nil, err
		}
		return bolt.New(storeCfg)

	default:
		var storeCfg memory.Config
		if err := cfg.Backend("memory", &storeCfg); err != nil {
			return nil, err
		}
		return memory.New(storeCfg), nil
	}
}
