package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_members", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_places", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_postings", UpSQL: migration003Up, DownSQL: migration003Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: MEMBERS
// Members are managed by the identity service; only the columns read here exist.
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS members (
    id BIGSERIAL PRIMARY KEY,
    nickname VARCHAR(50) NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    status VARCHAR(10) NOT NULL DEFAULT 'USED',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    CONSTRAINT members_status CHECK (status IN ('USED', 'DELETED'))
);
`

const migration001Down = `
DROP TABLE IF EXISTS members;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: PLACES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS places (
    id BIGSERIAL PRIMARY KEY,
    member_id BIGINT REFERENCES members(id),
    name VARCHAR(100) NOT NULL,
    address VARCHAR(255) NOT NULL DEFAULT '',
    phone_number VARCHAR(30) NOT NULL DEFAULT '',
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    status VARCHAR(10) NOT NULL DEFAULT 'USED',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    CONSTRAINT places_status CHECK (status IN ('USED', 'DELETED')),
    CONSTRAINT places_latitude CHECK (latitude BETWEEN -90 AND 90),
    CONSTRAINT places_longitude CHECK (longitude BETWEEN -180 AND 180)
);
CREATE INDEX IF NOT EXISTS idx_places_live_point ON places(latitude, longitude) WHERE status = 'USED';

CREATE TABLE IF NOT EXISTS place_tags (
    id BIGSERIAL PRIMARY KEY,
    place_id BIGINT NOT NULL REFERENCES places(id),
    name VARCHAR(50) NOT NULL,
    status VARCHAR(10) NOT NULL DEFAULT 'USED',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_place_tags_place ON place_tags(place_id) WHERE status = 'USED';

CREATE TABLE IF NOT EXISTS place_images (
    id BIGSERIAL PRIMARY KEY,
    place_id BIGINT NOT NULL REFERENCES places(id),
    image_url TEXT NOT NULL,
    status VARCHAR(10) NOT NULL DEFAULT 'USED',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_place_images_place ON place_images(place_id) WHERE status = 'USED';

CREATE TABLE IF NOT EXISTS place_comments (
    id BIGSERIAL PRIMARY KEY,
    place_id BIGINT NOT NULL REFERENCES places(id),
    member_id BIGINT NOT NULL REFERENCES members(id),
    content TEXT NOT NULL,
    status VARCHAR(10) NOT NULL DEFAULT 'USED',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_place_comments_place ON place_comments(place_id) WHERE status = 'USED';

CREATE TABLE IF NOT EXISTS bookmarks (
    id BIGSERIAL PRIMARY KEY,
    member_id BIGINT NOT NULL REFERENCES members(id),
    place_id BIGINT NOT NULL REFERENCES places(id),
    status VARCHAR(10) NOT NULL DEFAULT 'USED',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    UNIQUE (member_id, place_id)
);
`

const migration002Down = `
DROP TABLE IF EXISTS bookmarks;
DROP TABLE IF EXISTS place_comments;
DROP TABLE IF EXISTS place_images;
DROP TABLE IF EXISTS place_tags;
DROP TABLE IF EXISTS places;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: POSTINGS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS postings (
    id BIGSERIAL PRIMARY KEY,
    member_id BIGINT NOT NULL REFERENCES members(id),
    title VARCHAR(200) NOT NULL,
    content TEXT NOT NULL,
    status VARCHAR(10) NOT NULL DEFAULT 'USED',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    CONSTRAINT postings_status CHECK (status IN ('USED', 'DELETED'))
);
CREATE INDEX IF NOT EXISTS idx_postings_live_created ON postings(created_at DESC) WHERE status = 'USED';
CREATE INDEX IF NOT EXISTS idx_postings_member ON postings(member_id) WHERE status = 'USED';

CREATE TABLE IF NOT EXISTS posting_tags (
    id BIGSERIAL PRIMARY KEY,
    posting_id BIGINT NOT NULL REFERENCES postings(id),
    name VARCHAR(50) NOT NULL,
    status VARCHAR(10) NOT NULL DEFAULT 'USED',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_posting_tags_posting ON posting_tags(posting_id) WHERE status = 'USED';

CREATE TABLE IF NOT EXISTS posting_images (
    id BIGSERIAL PRIMARY KEY,
    posting_id BIGINT NOT NULL REFERENCES postings(id),
    image_url TEXT NOT NULL,
    status VARCHAR(10) NOT NULL DEFAULT 'USED',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_posting_images_posting ON posting_images(posting_id) WHERE status = 'USED';

CREATE TABLE IF NOT EXISTS posting_comments (
    id BIGSERIAL PRIMARY KEY,
    posting_id BIGINT NOT NULL REFERENCES postings(id),
    member_id BIGINT NOT NULL REFERENCES members(id),
    content TEXT NOT NULL,
    status VARCHAR(10) NOT NULL DEFAULT 'USED',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_posting_comments_posting ON posting_comments(posting_id) WHERE status = 'USED';
`

const migration003Down = `
DROP TABLE IF EXISTS posting_comments;
DROP TABLE IF EXISTS posting_images;
DROP TABLE IF EXISTS posting_tags;
DROP TABLE IF EXISTS postings;
`
