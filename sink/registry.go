package sink

import (
	"github.com/tweska/multio/internal/registry"
)

// Registry is the name-keyed DataSink factory. The
// concrete sink packages file, fdb and azure register themselves from
// their own init() via a package-level indirection to avoid sink
// depending on its own sub-packages; journaled has no registration and
// is built with journaled.New. Lookups go through Registry.New.
var Registry = registry.NewFactory[DataSink]()
