package store

const schema = `
CREATE TABLE IF NOT EXISTS item (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    media_code  TEXT NOT NULL,
    title       TEXT NOT NULL,
    description TEXT,
    UNIQUE(title, media_code)
);

CREATE INDEX IF NOT EXISTS idx_item_media ON item(media_code);

CREATE TABLE IF NOT EXISTS item_platform (
    item_id       INTEGER NOT NULL REFERENCES item(id),
    platform_code TEXT NOT NULL,
    PRIMARY KEY (item_id, platform_code)
);

CREATE TABLE IF NOT EXISTS tag (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS item_tag (
    item_id INTEGER NOT NULL REFERENCES item(id),
    tag_id  INTEGER NOT NULL REFERENCES tag(id),
    PRIMARY KEY (item_id, tag_id)
);

CREATE TABLE IF NOT EXISTS external_ref (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id     INTEGER NOT NULL REFERENCES item(id),
    source      TEXT NOT NULL,
    external_id TEXT,
    url         TEXT,
    UNIQUE(item_id, source, external_id, url)
);

CREATE TABLE IF NOT EXISTS rating_scale (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    name      TEXT NOT NULL UNIQUE,
    type      TEXT NOT NULL,
    min_value REAL,
    max_value REAL,
    step      REAL,
    notes     TEXT
);

CREATE TABLE IF NOT EXISTS rating_scale_map (
    scale_id  INTEGER NOT NULL REFERENCES rating_scale(id),
    raw_value TEXT NOT NULL,
    percent   INTEGER NOT NULL,
    PRIMARY KEY (scale_id, raw_value)
);

CREATE TABLE IF NOT EXISTS rating_source (
    id     INTEGER PRIMARY KEY AUTOINCREMENT,
    name   TEXT NOT NULL UNIQUE,
    kind   TEXT NOT NULL,
    weight REAL NOT NULL DEFAULT 1.0,
    trust  REAL NOT NULL DEFAULT 1.0
);

CREATE TABLE IF NOT EXISTS item_rating (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id    INTEGER NOT NULL REFERENCES item(id),
    source_id  INTEGER NOT NULL REFERENCES rating_source(id),
    scale_id   INTEGER NOT NULL REFERENCES rating_scale(id),
    raw_value  TEXT,
    value_num  REAL,
    percent    INTEGER NOT NULL,
    vote_count INTEGER,
    confidence REAL NOT NULL DEFAULT 1.0,
    notes      TEXT,
    rated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rating_item ON item_rating(item_id);
CREATE INDEX IF NOT EXISTS idx_rating_source ON item_rating(source_id);
CREATE INDEX IF NOT EXISTS idx_rating_rated_at ON item_rating(rated_at);
`
