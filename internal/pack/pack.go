// Package pack loads theory packs: directories of .sys2 source files,
// optionally ordered by an index file of load directives.
package pack

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sys2/internal/dsl"
	"sys2/internal/logging"
	"sys2/internal/types"
)

// Load reads a theory pack and returns its statement stream in pack order.
// With an index file present, files load in the listed order; otherwise
// every .sys2 file loads lexicographically. Missing listed files are an
// error only when validate is set; otherwise they are skipped and recorded.
func Load(dir string, parser dsl.Parser, validate bool) ([]dsl.Statement, []*types.Error, error) {
	log := logging.Get(logging.CategoryPack)
	files, listErrs, err := listFiles(dir, parser, validate)
	if err != nil {
		return nil, nil, err
	}

	var stmts []dsl.Statement
	errs := listErrs
	for _, path := range files {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			e := types.Wrap(types.KindIO, rerr, "read pack file %s", path).For(path)
			if validate {
				return nil, nil, e
			}
			errs = append(errs, e)
			continue
		}
		fileStmts, fileErrs := parser.Parse(string(data))
		for _, fe := range fileErrs {
			fe.Ident = path
		}
		errs = append(errs, fileErrs...)
		if validate && len(fileErrs) > 0 {
			return nil, nil, fileErrs[0]
		}
		stmts = append(stmts, fileStmts...)
		log.Debug("pack file %s: %d statements", path, len(fileStmts))
	}
	log.Info("pack %s: %d files, %d statements", dir, len(files), len(stmts))
	return stmts, errs, nil
}

// listFiles resolves the pack's file order. The index file is itself DSL: a
// list of load directives naming pack files.
func listFiles(dir string, parser dsl.Parser, validate bool) ([]string, []*types.Error, error) {
	indexPath := filepath.Join(dir, "index")
	if data, err := os.ReadFile(indexPath); err == nil {
		stmts, parseErrs := parser.Parse(string(data))
		if validate && len(parseErrs) > 0 {
			return nil, nil, parseErrs[0]
		}
		var files []string
		errs := parseErrs
		for _, stmt := range stmts {
			if stmt.Kind != dsl.StmtLoad {
				e := types.E(types.KindParse, "pack index may only contain load directives").
					At(stmt.Line, stmt.Col)
				if validate {
					return nil, nil, e
				}
				errs = append(errs, e)
				continue
			}
			path := filepath.Join(dir, stmt.Path)
			if _, statErr := os.Stat(path); statErr != nil {
				e := types.Wrap(types.KindIO, statErr, "pack file %s listed by index is missing", stmt.Path).For(stmt.Path)
				if validate {
					return nil, nil, e
				}
				errs = append(errs, e)
				continue
			}
			files = append(files, path)
		}
		return files, errs, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, types.Wrap(types.KindIO, err, "read pack directory %s", dir).For(dir)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sys2") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil, nil
}
