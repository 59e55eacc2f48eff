package extract

// Catalog queries, all scoped to a single schema. These are the only
// wire-level contract the extractor has with the target database.

const tablesQuery = `
SELECT c.relname AS table_name,
       pg_get_userbyid(c.relowner) AS table_owner,
       COALESCE(obj_description(c.oid, 'pg_class'), '') AS table_comment,
       c.relkind = 'p' AS is_partitioned,
       CASE WHEN c.relkind = 'p' THEN COALESCE(pg_get_partkeydef(c.oid), '') ELSE '' END AS partition_key
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relkind IN ('r', 'p')
ORDER BY c.relname`

const columnsQuery = `
SELECT c.table_name,
       c.column_name,
       c.ordinal_position,
       CASE WHEN c.data_type IN ('USER-DEFINED', 'ARRAY') THEN c.udt_name ELSE c.data_type END AS data_type,
       c.is_nullable = 'YES' AS is_nullable,
       c.column_default,
       c.is_identity = 'YES' AS is_identity,
       COALESCE(c.identity_generation, '') AS identity_generation,
       c.is_generated = 'ALWAYS' AS is_generated,
       COALESCE(c.generation_expression, '') AS generation_expression,
       COALESCE(col_description(pgc.oid, c.ordinal_position), '') AS column_comment
FROM information_schema.columns c
JOIN pg_class pgc ON pgc.relname = c.table_name
JOIN pg_namespace n ON n.oid = pgc.relnamespace AND n.nspname = c.table_schema
WHERE c.table_schema = $1
  AND pgc.relkind IN ('r', 'p')
ORDER BY c.table_name, c.ordinal_position`

const constraintsQuery = `
SELECT rel.relname AS table_name,
       con.conname AS constraint_name,
       con.contype AS constraint_type,
       pg_get_constraintdef(con.oid) AS definition,
       COALESCE(frel.relname, '') AS referenced_table,
       ARRAY(SELECT a.attname
             FROM unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
             JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
             ORDER BY k.ord)::text[] AS columns,
       ARRAY(SELECT a.attname
             FROM unnest(con.confkey) WITH ORDINALITY AS k(attnum, ord)
             JOIN pg_attribute a ON a.attrelid = con.confrelid AND a.attnum = k.attnum
             ORDER BY k.ord)::text[] AS referenced_columns,
       con.confdeltype::text AS delete_rule,
       con.confupdtype::text AS update_rule
FROM pg_constraint con
JOIN pg_class rel ON rel.oid = con.conrelid
JOIN pg_namespace n ON n.oid = rel.relnamespace
LEFT JOIN pg_class frel ON frel.oid = con.confrelid
WHERE n.nspname = $1
  AND con.contype IN ('p', 'f', 'u', 'c')
ORDER BY rel.relname, con.conname`

const indexesQuery = `
SELECT t.relname AS table_name,
       i.relname AS index_name,
       am.amname AS method,
       idx.indisunique AS is_unique,
       pg_get_indexdef(idx.indexrelid) AS definition,
       COALESCE(pg_get_expr(idx.indpred, idx.indrelid), '') AS predicate,
       (SELECT COALESCE(array_agg(pg_get_indexdef(idx.indexrelid, g.n, true) ORDER BY g.n), '{}')
        FROM generate_series(1, idx.indnatts) AS g(n))::text[] AS columns
FROM pg_index idx
JOIN pg_class i ON i.oid = idx.indexrelid
JOIN pg_class t ON t.oid = idx.indrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_am am ON am.oid = i.relam
WHERE n.nspname = $1
  AND NOT idx.indisprimary
  AND NOT EXISTS (
      SELECT 1 FROM pg_constraint c
      WHERE c.conindid = idx.indexrelid AND c.contype IN ('u', 'p')
  )
ORDER BY t.relname, i.relname`

const triggersQuery = `
SELECT rel.relname AS table_name,
       t.tgname AS trigger_name,
       t.tgtype AS trigger_type,
       p.proname AS function_name,
       pg_get_triggerdef(t.oid) AS definition
FROM pg_trigger t
JOIN pg_class rel ON rel.oid = t.tgrelid
JOIN pg_namespace n ON n.oid = rel.relnamespace
JOIN pg_proc p ON p.oid = t.tgfoid
WHERE n.nspname = $1
  AND NOT t.tgisinternal
ORDER BY rel.relname, t.tgname`

const viewsQuery = `
SELECT c.relname AS view_name,
       c.relkind = 'm' AS is_materialized,
       pg_get_viewdef(c.oid, true) AS definition,
       COALESCE(obj_description(c.oid, 'pg_class'), '') AS view_comment
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relkind IN ('v', 'm')
ORDER BY c.relname`

const functionsQuery = `
SELECT p.proname AS function_name,
       pg_get_function_identity_arguments(p.oid) AS arguments,
       p.prokind = 'p' AS is_procedure,
       COALESCE(pg_get_function_result(p.oid), '') AS return_type,
       l.lanname AS language,
       pg_get_functiondef(p.oid) AS definition,
       CASE p.provolatile WHEN 'i' THEN 'IMMUTABLE' WHEN 's' THEN 'STABLE' ELSE 'VOLATILE' END AS volatility,
       p.proisstrict AS is_strict,
       p.prosecdef AS is_security_definer
FROM pg_proc p
JOIN pg_namespace n ON n.oid = p.pronamespace
JOIN pg_language l ON l.oid = p.prolang
WHERE n.nspname = $1
  AND p.prokind IN ('f', 'p')
ORDER BY p.proname, pg_get_function_identity_arguments(p.oid)`

const sequencesQuery = `
SELECT c.relname AS sequence_name,
       format_type(s.seqtypid, NULL) AS data_type,
       s.seqstart, s.seqincrement, s.seqmin, s.seqmax, s.seqcache, s.seqcycle
FROM pg_sequence s
JOIN pg_class c ON c.oid = s.seqrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
ORDER BY c.relname`

const enumsQuery = `
SELECT t.typname AS type_name,
       COALESCE(obj_description(t.oid, 'pg_type'), '') AS type_comment,
       e.enumlabel AS label
FROM pg_type t
JOIN pg_enum e ON e.enumtypid = t.oid
JOIN pg_namespace n ON n.oid = t.typnamespace
WHERE n.nspname = $1
ORDER BY t.typname, e.enumsortorder`

const compositesQuery = `
SELECT t.typname AS type_name,
       COALESCE(obj_description(t.oid, 'pg_type'), '') AS type_comment,
       a.attname AS attr_name,
       format_type(a.atttypid, a.atttypmod) AS attr_type,
       a.attnum AS attr_position
FROM pg_type t
JOIN pg_class c ON c.oid = t.typrelid AND c.relkind = 'c'
JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum > 0 AND NOT a.attisdropped
JOIN pg_namespace n ON n.oid = t.typnamespace
WHERE n.nspname = $1
ORDER BY t.typname, a.attnum`

const domainsQuery = `
SELECT t.typname AS domain_name,
       format_type(t.typbasetype, t.typtypmod) AS base_type,
       t.typnotnull AS not_null,
       COALESCE(t.typdefault, '') AS default_value,
       COALESCE(pg_get_constraintdef(con.oid), '') AS check_expr,
       COALESCE(obj_description(t.oid, 'pg_type'), '') AS domain_comment
FROM pg_type t
LEFT JOIN pg_constraint con ON con.contypid = t.oid
JOIN pg_namespace n ON n.oid = t.typnamespace
WHERE n.nspname = $1
  AND t.typtype = 'd'
ORDER BY t.typname`

const extensionsQuery = `
SELECT e.extname, e.extversion
FROM pg_extension e
ORDER BY e.extname`
