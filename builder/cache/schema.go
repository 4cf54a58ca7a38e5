package cache

// BoltDB bucket names
const (
	BucketLastMod = "last_mod" // {source path} -> LastModRecord
	BucketCover   = "cover"    // {image}|{directory} -> CoverRecord

	BucketMeta  = "meta"  // schema_version
	BucketStats = "stats" // build_count

	KeySchemaVersion = "schema_version"
	KeyBuildCount    = "build_count"
)

// AllBuckets returns all bucket names for initialization
func AllBuckets() []string {
	return []string{
		BucketLastMod,
		BucketCover,
		BucketMeta,
		BucketStats,
	}
}
