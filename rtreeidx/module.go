package rtreeidx

import (
	"fmt"

	"github.com/hupe1980/stboxidx/engine"
)

// IndexType returns the TRTREE index type bound to cfg.
func IndexType(cfg *Config) engine.IndexType {
	return engine.IndexType{
		Name: TypeName,
		CreateInstance: func(in engine.CreateIndexInput) (engine.Index, error) {
			if len(in.ColumnIDs) != 1 {
				return nil, fmt.Errorf("%w: %s index %s must be on exactly one column", ErrInvalidArgument, TypeName, in.Info.IndexName)
			}
			keyType := columnType(in.Table, in.ColumnIDs[0])
			if keyType.ID != engine.TypeBlob {
				return nil, fmt.Errorf("%w: %s index %s cannot be built over type %s", ErrInvalidArgument, TypeName, in.Info.IndexName, keyType)
			}
			return NewIndex(in.Info.IndexName, in.Table.Name(), in.ColumnIDs[0], keyType, in.Info.Options, cfg)
		},
		CreatePlan: func(in engine.PlanIndexInput) (engine.IndexSink, error) {
			return NewCreateIndexOperator(in, cfg)
		},
	}
}

// Register installs the TRTREE index type, its scan function, the overlap
// functions, the rewrite rule and the pragmas into db.
func Register(db *engine.DB, opts ...Option) (*Config, error) {
	cfg := NewConfig(opts...)
	reg := db.Registry()

	if err := reg.RegisterIndexType(IndexType(cfg)); err != nil {
		return nil, err
	}
	scan := ScanFunction()
	if err := reg.RegisterTableFunction(scan); err != nil {
		return nil, err
	}
	for _, fn := range OverlapFunctions(cfg.OverlapFunctions...) {
		if err := reg.RegisterScalarFunction(fn); err != nil {
			return nil, err
		}
	}
	for _, p := range Pragmas() {
		if err := reg.RegisterPragma(p); err != nil {
			return nil, err
		}
	}
	reg.RegisterOptimizer(NewScanOptimizer(cfg, scan))

	cfg.Logger.Debug("extension registered", "index_type", TypeName, "overlap_functions", cfg.OverlapFunctions)
	return cfg, nil
}
