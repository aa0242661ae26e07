package config

import (
	"context"
	stderrors "errors"
	iofs "io/fs"
	"path"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/encoding/yaml"

	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
)

// ReadFS is the filesystem surface the loader needs.
type ReadFS interface {
	ReadFile(path string) ([]byte, error)
}

type loader struct {
	ctx *cue.Context
}

func newLoader() *loader {
	return &loader{ctx: cuecontext.New()}
}

// load reads the file at p and hands it to parse. An empty path or a
// missing file is parsed as an empty document.
func (l *loader) load(ctx context.Context, fsys ReadFS, p string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCanceled, "loading configuration")
	}
	if p == "" {
		return l.parse("defaults.cue", nil)
	}

	data, err := fsys.ReadFile(p)
	if err != nil {
		if stderrors.Is(err, iofs.ErrNotExist) {
			return l.parse(p, nil)
		}
		return nil, errors.WrapWithContext(err, errors.CodeCUELoadFailed,
			"failed to read configuration", map[string]interface{}{"path": p})
	}
	return l.parse(p, data)
}

// parse compiles data, unifies it with the schema, and decodes the result.
func (l *loader) parse(name string, data []byte) (*Config, error) {
	schema := l.ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "compiling configuration schema")
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	user, err := l.compile(name, data)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeCUELoadFailed,
			"failed to parse configuration", map[string]interface{}{"path": name})
	}

	v := def.Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, errors.WrapWithContext(stderrors.New(cueerrors.Details(err, nil)),
			errors.CodeSchemaFailed, "configuration does not match schema",
			map[string]interface{}{"path": name})
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeCUEDecodeFailed,
			"failed to decode configuration", map[string]interface{}{"path": name})
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *loader) compile(name string, data []byte) (cue.Value, error) {
	if len(data) == 0 {
		return l.ctx.CompileString("{}"), nil
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		f, err := yaml.Extract(name, data)
		if err != nil {
			return cue.Value{}, err
		}
		v := l.ctx.BuildFile(f)
		return v, v.Err()
	default:
		v := l.ctx.CompileBytes(data, cue.Filename(name))
		return v, v.Err()
	}
}
