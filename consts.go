package lixi

import "time"

const (
	// DefaultGameStateKey is the store key holding the active session record
	DefaultGameStateKey = "lixi2026_game"

	// DefaultRoomsKey is the store key holding the serialized room list
	DefaultRoomsKey = "lixi2026_rooms"

	// RoomIDPrefix is the prefix used for generated room identifiers
	RoomIDPrefix = "room"

	// DenominationIDPrefix is the prefix used for generated denomination identifiers
	DenominationIDPrefix = "denom"

	// DefaultRoomNameFormat is used when the organizer leaves the room name blank
	DefaultRoomNameFormat = "Phòng %d"

	// MaxSerializationSize is the maximum allowed size for a serialized record (10MB)
	MaxSerializationSize = 10 * 1024 * 1024
)

const (
	// DefaultRetryAttempts is the default number of storage retry attempts
	DefaultRetryAttempts = 3

	// DefaultRetryInterval is the default base interval between storage retries
	DefaultRetryInterval = 100 * time.Millisecond

	// MaxRetryAttempts is the maximum number of retry attempts allowed
	MaxRetryAttempts = 10

	// MaxRetryDelay caps the exponential backoff between storage retries
	MaxRetryDelay = 5 * time.Second
)

const (
	// StorageBackendMemory keeps records in process memory
	StorageBackendMemory = "memory"

	// StorageBackendRedis keeps records in Redis
	StorageBackendRedis = "redis"

	// StorageBackendSQLite keeps records in an embedded SQLite database
	StorageBackendSQLite = "sqlite"

	// DefaultStorageBackend is the backend used when none is configured
	DefaultStorageBackend = StorageBackendMemory

	// DefaultSQLitePath is the default SQLite database file
	DefaultSQLitePath = "lixi.db"

	// RedisKeyPrefix namespaces every key written by RedisStore
	RedisKeyPrefix = "lixi:"
)

const (
	// DefaultCircuitBreakerName is the default name for Circuit Breaker
	DefaultCircuitBreakerName = "lixi-store"

	// DefaultCircuitBreakerMaxRequests is the default max requests
	DefaultCircuitBreakerMaxRequests = 3

	// DefaultCircuitBreakerInterval is the default interval
	DefaultCircuitBreakerInterval = 60 * time.Second

	// DefaultCircuitBreakerTimeout is the default timeout
	DefaultCircuitBreakerTimeout = 30 * time.Second

	// DefaultCircuitBreakerFailureRatio is the default failure ratio
	DefaultCircuitBreakerFailureRatio = 0.6

	// DefaultCircuitBreakerMinRequests is the default min requests
	DefaultCircuitBreakerMinRequests = 3

	// DefaultCircuitBreakerOnStateChange is the default on state change
	DefaultCircuitBreakerOnStateChange = true
)

const (
	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisPassword     = ""
	DefaultRedisDB           = 0
	DefaultRedisPoolSize     = 10
	DefaultRedisMinIdleConns = 2
	DefaultRedisMaxRetries   = 3
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second
	DefaultRedisPoolTimeout  = 4 * time.Second
)
