package db

// schemaSQL contains the database schema initialization SQL. The single
// %d placeholder is the HNSW index dimension, filled from config.
const schemaSQL = `
    -- ==========================================================================
    -- CAPTURED OBJECT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS captured_object SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON captured_object TYPE string;
    DEFINE FIELD IF NOT EXISTS object_class ON captured_object TYPE string;
    DEFINE FIELD IF NOT EXISTS description ON captured_object TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS confidence ON captured_object TYPE float DEFAULT 0.0
        ASSERT $value >= 0.0 AND $value <= 1.0;
    DEFINE FIELD IF NOT EXISTS position ON captured_object TYPE option<geometry<point>>;
    DEFINE FIELD IF NOT EXISTS embedding ON captured_object TYPE option<array<float>>;
    DEFINE FIELD IF NOT EXISTS metadata ON captured_object TYPE object FLEXIBLE DEFAULT {};
    DEFINE FIELD IF NOT EXISTS mission_id ON captured_object TYPE option<record<mission>>;
    DEFINE FIELD IF NOT EXISTS subcategory ON captured_object TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON captured_object TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS object_mission ON captured_object FIELDS mission_id;
    DEFINE INDEX IF NOT EXISTS object_created ON captured_object FIELDS created_at;
    DEFINE INDEX IF NOT EXISTS object_embedding ON captured_object FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;

    -- ==========================================================================
    -- MISSION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS mission SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS code ON mission TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON mission TYPE string;
    DEFINE FIELD IF NOT EXISTS zone ON mission TYPE string;
    DEFINE FIELD IF NOT EXISTS climate_snapshot ON mission TYPE object FLEXIBLE DEFAULT {};
    DEFINE FIELD IF NOT EXISTS state ON mission TYPE string DEFAULT "active"
        ASSERT $value IN ["active", "completed"];
    DEFINE FIELD IF NOT EXISTS started_at ON mission TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS ended_at ON mission TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS mission_started ON mission FIELDS started_at;

    -- ==========================================================================
    -- CONVERSATION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS conversation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON conversation TYPE string;
    DEFINE FIELD IF NOT EXISTS messages ON conversation TYPE array<object> FLEXIBLE DEFAULT [];
    DEFINE FIELD IF NOT EXISTS created_at ON conversation TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON conversation TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS conversation_updated ON conversation FIELDS updated_at;
`
