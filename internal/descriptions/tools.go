package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	// Matching and Extraction Tools
	TemplateMatchDescription = `Rank extraction templates against a document and explain every score.

**When to use:** A document of unknown type arrives and you need to know which extraction template fits it before pulling field values.

**Why it's useful:** Scores every active template on trigger keywords, format, structure, and content evidence, and returns the reasoning behind each score so a borderline match can be judged instead of trusted blindly.

**Examples:**
• Route incoming documents: "Match incident-2024-0145.txt to find the right report template"
• Confirm a suspicion: "Check whether invoice-march.pdf really fits the invoice template"
• Audit the catalog: "Match a known-good sample and verify its template still ranks first"

**Common workflows:**
1. Ingest Routing: template_match → pick top template → field_extract with its id
2. Catalog Tuning: Match sample documents → read score reasons → adjust trigger keywords
3. Quality Gate: Match → reject documents whose best score stays below the confidence floor

**Best practices:** Pass a limit when the catalog is large; read the per-category breakdown before accepting a match near the threshold.`

	FieldExtractDescription = `Extract structured field values from a document using an extraction template.

**When to use:** You know (or want the server to pick) the template and need the actual field values with per-field confidence.

**Why it's useful:** Runs the template's zones, patterns, keywords, and metadata lookups with fallback chains, validation, and transforms, and reports confidence per field instead of a bare value.

**Examples:**
• Pull ticket data: "Extract incident_id and severity from incident-2024-0145.txt with template t-incident"
• Hands-off extraction: "Extract fields from report.pdf and let the server choose the template"
• Spot-check a template change: "Re-extract the sample document after editing the severity pattern"

**Common workflows:**
1. Known Pipeline: field_extract with an explicit template_id → feed values downstream
2. Automatic Mode: omit template_id → best match above the confidence floor is applied
3. Template Development: extract → inspect warnings and low-confidence flags → refine fields

**Best practices:** Treat low-confidence and default-valued fields as review candidates; required-field errors mean the document likely does not belong to the template.`

	// Catalog Tools
	TemplateListDescription = `List stored extraction templates with optional category, tag, and format filters.

**When to use:** Exploring what the catalog can extract, or narrowing to the templates relevant to one document family.

**Why it's useful:** Shows each template's id, field count, supported formats, activity, and parentage so the catalog's shape is visible at a glance.

**Examples:**
• First contact: "List all templates to see what this server extracts"
• Narrow by domain: "List templates in category 'security' supporting txt"
• Inheritance check: "List templates and note which declare a parent"

**Common workflows:**
1. Orientation: template_list → template_match on a sample → field_extract
2. Catalog Maintenance: list by tag → diff recent versions → retire stale templates
3. Import Review: template_import → template_list → verify the new entries

**Best practices:** Start every session here; the ids in the listing are what the other tools take.`

	TemplateDiffDescription = `Compare two recorded versions of a template field by field.

**When to use:** A template's behavior changed and you need to know exactly which fields were added, removed, or modified between versions.

**Why it's useful:** Version history is append-only; the diff turns two opaque snapshots into a precise field-level change list suitable for review or audit.

**Examples:**
• Regression hunt: "Diff v3 against v4 of the incident template after extraction quality dropped"
• Change review: "Show what the last save changed before approving the template"
• Audit trail: "Record the field-level changes between the quarterly template revisions"

**Common workflows:**
1. Debugging: notice worse extractions → template_diff latest two versions → roll back if needed
2. Review Gate: edit template → diff against previous version → approve or revise
3. Compliance: diff released versions → archive the change list

**Best practices:** Labels are sequential (v1, v2, ...); rollbacks append a new labeled version rather than rewriting history.`

	// Exchange Tools
	TemplateExportDescription = `Export templates to a portable JSON document, optionally gzip-compressed.

**When to use:** Moving templates between servers, backing up the catalog, or publishing a curated template set.

**Why it's useful:** The export carries version history, usage statistics, and an integrity hash, so the receiving side can verify the payload and keep the audit trail.

**Examples:**
• Full backup: "Export all templates to /backups/catalog-2024-06.json"
• Selective share: "Export templates t-incident,t-review for the sister team"
• Compact archive: "Export everything compressed for long-term storage"

**Common workflows:**
1. Backup: export all → store the file → verify by importing into a scratch server
2. Promotion: export from staging → import into production with overwrite
3. Distribution: export a curated set → publish → consumers import with rename-on-conflict

**Best practices:** Keep compression on for large catalogs; the import side detects it automatically.`

	TemplateImportDescription = `Import templates from an export document into the catalog.

**When to use:** Receiving templates produced by template_export on this or another server.

**Why it's useful:** Validates the document's schema, format version, and integrity hash before anything is written, and resolves id and name conflicts per the chosen policy instead of failing the whole batch.

**Examples:**
• Restore: "Import /backups/catalog-2024-06.json after a store reset"
• Merge catalogs: "Import the partner set with rename enabled to keep both name variants"
• Update in place: "Import the staging export with overwrite to refresh production templates"

**Common workflows:**
1. Restore: import → template_list → spot-check with field_extract
2. Merge: import with rename → review renamed entries → clean up duplicates
3. Refresh: import with overwrite → template_diff to confirm the changes landed

**Best practices:** Without overwrite or rename, conflicting templates are skipped with a warning; check the returned summary before assuming everything landed.`

	// Utility Tools
	ServerInfoDescription = `Get server configuration, catalog contents, available tools, and usage guidance.

**When to use:** Starting work with the server, troubleshooting, or checking which document formats it accepts.

**Why it's useful:** One call shows the template directory, store backing, size limits, supported extensions, and a catalog summary, which answers most "why did my call fail" questions.

**Examples:**
• Orientation: "Show server info to learn the available tools and catalog size"
• Troubleshooting: "Check the max file size after a large document was rejected"
• Capability check: "Confirm xlsx is a supported extension before batch processing spreadsheets"

**Common workflows:**
1. Session Start: server_info → template_list → work with the catalog
2. Debugging: failed call → server_info → compare limits and formats against the document
3. Monitoring: periodic server_info → track catalog growth

**Best practices:** The tool table in the output is the quickest map of what this server can do.`
)
