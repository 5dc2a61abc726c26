package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

const (
	LeaseLocal = "local"
	LeaseRedis = "redis"
)
