package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"voxelstore.dev/internal/metrics"
	"voxelstore.dev/internal/persistence/archive"
	"voxelstore.dev/internal/persistence/indexdb"
	persistlog "voxelstore.dev/internal/persistence/log"
	"voxelstore.dev/internal/persistence/snapshot"
	"voxelstore.dev/internal/service"
	"voxelstore.dev/internal/transport/ws"
	"voxelstore.dev/internal/tuning"
	"voxelstore.dev/internal/world"
	"voxelstore.dev/internal/world/block"
	"voxelstore.dev/internal/world/blocks"
	"voxelstore.dev/internal/world/gen"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 0, "world seed override (0: use tuning seed; ignored on resume)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		disableDB  = flag.Bool("disable_db", false, "disable the snapshot index db")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	reg := block.NewRegistry()
	if err := blocks.RegisterAll(reg); err != nil {
		logger.Fatalf("palette: %v", err)
	}

	// Optional: snapshot index backend (the snapshot files stay the source
	// of truth).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index", "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
	}

	// Create store (fresh or resumed from snapshot).
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}

	var store *world.ChunkStore
	effSeed := tune.Seed
	if *seed != 0 {
		effSeed = *seed
	}
	nextSeq := uint64(1)

	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.WorldID != "" && snap.Header.WorldID != *worldID {
			logger.Fatalf("snapshot world id mismatch: flag=%s snap=%s", *worldID, snap.Header.WorldID)
		}
		store, err = world.ImportSnapshot(reg, snap)
		if err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		effSeed = snap.Seed
		nextSeq = snap.Header.Seq + 1
		logger.Printf("resumed from snapshot=%s seq=%d chunks=%d", filepath.Base(snapshotToLoad), snap.Header.Seq, store.Len())
	} else {
		fill, err := resolveFill(reg, tune.DefaultFill)
		if err != nil {
			logger.Fatalf("default fill: %v", err)
		}
		store, err = world.NewChunkStore(reg, world.Dims{
			X: tune.ChunkDims[0],
			Y: tune.ChunkDims[1],
			Z: tune.ChunkDims[2],
		}, fill, tune.WorldRadius)
		if err != nil {
			logger.Fatalf("store: %v", err)
		}
	}

	if idx != nil {
		if seq, err := idx.NextSeq(*worldID); err != nil {
			logger.Printf("index db: next seq: %v", err)
		} else if seq > nextSeq {
			nextSeq = seq
		}
	}

	g, err := gen.New(reg, effSeed, gen.Config{
		SurfaceLevel:   tune.Gen.SurfaceLevel,
		ReliefAmp:      tune.Gen.ReliefAmp,
		ChestPermille:  tune.Gen.ChestPermille,
		StairsPermille: tune.Gen.StairsPermille,
	})
	if err != nil {
		logger.Fatalf("generator: %v", err)
	}
	store.SetFiller(g)

	// Pregenerate the spawn region so generator faults surface before
	// serving and first joiners don't pay the fill cost.
	t0 := time.Now()
	pregen := 0
	for cz := -1; cz <= 1; cz++ {
		for cy := -1; cy <= 1; cy++ {
			for cx := -1; cx <= 1; cx++ {
				k := world.ChunkKey{CX: cx, CY: cy, CZ: cz}
				if !store.KeyInBounds(k) {
					continue
				}
				if _, err := store.EnsureChunk(k); err != nil {
					logger.Fatalf("pregen chunk (%d,%d,%d): %v", cx, cy, cz, err)
				}
				pregen++
			}
		}
	}
	logger.Printf("pregen spawn region: %d chunks in %s", pregen, time.Since(t0).Round(time.Millisecond))

	svc := service.New(service.Config{
		WorldID:       *worldID,
		Seed:          effSeed,
		SnapshotEvery: time.Duration(tune.SnapshotEverySecs) * time.Second,
		NextSeq:       nextSeq,
	}, store, logger)

	auditLog := persistlog.NewAuditLogger(worldDir)
	svc.SetAuditLogger(auditLog)

	mirrorRT, err := buildMirrorRuntime(*dataDir, logger)
	if err != nil {
		logger.Fatalf("mirror: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Snapshot writer. Drains until the channel closes after Run returns;
	// the shutdown export is a blocking send, so it always lands here.
	snapLogger := log.New(os.Stdout, "[snapshot] ", log.LstdFlags|log.Lmicroseconds)
	snapCh := make(chan snapshot.SnapshotV1, 2)
	svc.SetSnapshotSink(snapCh)
	sinkDone := make(chan struct{})
	go func() {
		defer close(sinkDone)
		for snap := range snapCh {
			path := filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Seq))
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				metrics.SnapshotErrorsTotal.Inc()
				snapLogger.Printf("write: %v", err)
				continue
			}
			metrics.SnapshotWritesTotal.Inc()
			snapLogger.Printf("seq=%d chunks=%d -> %s", snap.Header.Seq, len(snap.Chunks), filepath.Base(path))
			if idx != nil {
				if err := idx.RecordSnapshot(snapshotRow(*worldID, path, snap)); err != nil {
					metrics.SnapshotErrorsTotal.Inc()
					snapLogger.Printf("index db: %v", err)
				}
			}
			mirrorRT.Enqueue(path)
			// Prune after the enqueue; keep >= 1 always spares the file
			// just written. Rows for pruned files go too, so listings and
			// verify only ever see files that exist.
			if removed, err := archive.PruneSnapshots(filepath.Dir(path), tune.SnapshotKeep); err != nil {
				snapLogger.Printf("prune: %v", err)
			} else if len(removed) > 0 {
				snapLogger.Printf("pruned %d old snapshots", len(removed))
				if idx != nil {
					for _, rp := range removed {
						seq, ok := archive.SnapshotSeq(filepath.Base(rp))
						if !ok {
							continue
						}
						if err := idx.DeleteSnapshot(*worldID, seq); err != nil {
							snapLogger.Printf("index db: %v", err)
						}
					}
				}
			}
		}
	}()

	runDone := make(chan error, 1)
	go func() { runDone <- svc.Run(ctx) }()

	wsInfo := ws.WorldInfo{
		WorldID:       *worldID,
		ChunkDims:     [3]int{store.Dims().X, store.Dims().Y, store.Dims().Z},
		WorldRadius:   store.Radius(),
		Seed:          effSeed,
		PaletteDigest: reg.PaletteDigest(),
		PaletteCount:  reg.Len(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())

	enableAdminHTTP := envBool("VS_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("VS_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				WorldID       string `json:"world_id"`
				ChunkDims     [3]int `json:"chunk_dims"`
				WorldRadius   int    `json:"world_radius"`
				Seed          int64  `json:"seed"`
				PaletteCount  int    `json:"palette_count"`
				PaletteDigest string `json:"palette_digest"`
			}{
				WorldID:       *worldID,
				ChunkDims:     wsInfo.ChunkDims,
				WorldRadius:   wsInfo.WorldRadius,
				Seed:          effSeed,
				PaletteCount:  wsInfo.PaletteCount,
				PaletteDigest: wsInfo.PaletteDigest,
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel2()
			seq, err := svc.RequestSnapshot(ctx2)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "seq": seq})
		})
	} else {
		logger.Printf("admin endpoints disabled (VS_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	wsLogger := log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds)
	mux.HandleFunc("/v1/ws", ws.NewServer(svc, wsInfo, wsLogger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("world=%s dims=%dx%dx%d radius=%d seed=%d listening on %s",
		*worldID, wsInfo.ChunkDims[0], wsInfo.ChunkDims[1], wsInfo.ChunkDims[2], wsInfo.WorldRadius, effSeed, *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	// Let the loop finish its shutdown export, then drain the writer,
	// the mirror queue, and the audit stream, in that order.
	if err := <-runDone; err != nil && err != context.Canceled {
		logger.Printf("service stopped: %v", err)
	}
	close(snapCh)
	<-sinkDone
	mirrorRT.Close()
	if err := auditLog.Close(); err != nil {
		logger.Printf("audit log close: %v", err)
	}
	logger.Printf("shutdown complete")
}

func resolveFill(reg *block.Registry, id string) (block.Block, error) {
	k, ok := reg.KindByID(id)
	if !ok {
		return nil, fmt.Errorf("%q is not in the palette", id)
	}
	b, ok := reg.Unpack(k, 0)
	if !ok {
		return nil, fmt.Errorf("%q is an entity kind and cannot fill chunks", id)
	}
	return b, nil
}

func snapshotRow(worldID, path string, snap snapshot.SnapshotV1) indexdb.SnapshotRow {
	entities := 0
	for _, ch := range snap.Chunks {
		entities += len(ch.Entities)
	}
	return indexdb.SnapshotRow{
		WorldID:       worldID,
		Seq:           snap.Header.Seq,
		Path:          path,
		CreatedUnixMs: snap.Header.CreatedUnixMs,
		Chunks:        len(snap.Chunks),
		Entities:      entities,
		Digest:        fileDigest(path),
	}
}

// fileDigest hashes the written artifact, not the in-memory form, so a
// listing can verify the file on disk.
func fileDigest(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestSeq uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		seq, ok := archive.SnapshotSeq(e.Name())
		if !ok {
			continue
		}
		if best == "" || seq > bestSeq {
			bestSeq = seq
			best = filepath.Join(dir, e.Name())
		}
	}
	return best
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
