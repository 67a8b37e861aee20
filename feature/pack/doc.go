// Package pack turns built table trees into incremental patch archives.
//
// A manifest per environment records the SHA-256 of every distributable
// file at the last published version. Pack hashes the current build tree,
// with the environment's override tree layered on top, and ships only the
// files whose hash changed in a deterministic zip archive. The archive is
// appended to the patch index that clients poll, and the manifest is
// replaced last so a failed run never claims files it did not ship.
//
// # Usage
//
//	p := pack.NewPackager(cfg.Pack, log)
//	res, err := p.Pack(ctx, pack.Request{
//	    Env:          "live",
//	    BuildDir:     "build/live",
//	    OutputDir:    "out",
//	    ManifestPath: "packs/live/manifest.json",
//	})
package pack
