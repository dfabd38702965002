package localnav

import "github.com/jward/localnav/internal/store"

// Public type aliases for internal store types used in the QueryBuilder API.

type Store = store.Store
type File = store.File
type Occurrence = store.Occurrence
