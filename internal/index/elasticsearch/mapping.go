package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for product documents.
const DefaultIndexName = "catalog_products"

// buildIndexMapping returns the full JSON mapping for the product index.
// Title and description are analyzed full-text fields; image, categories,
// size, and color are exact-match keywords; price is numeric; timestamps are
// dates. Changing this mapping requires dropping and recreating the index.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "catalog_text": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "english_stop", "english_stemmer"]
        }
      },
      "filter": {
        "english_stop": {
          "type": "stop",
          "stopwords": "_english_"
        },
        "english_stemmer": {
          "type": "stemmer",
          "language": "english"
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "title":       { "type": "text", "analyzer": "catalog_text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "description": { "type": "text", "analyzer": "catalog_text" },
      "image_url":   { "type": "keyword" },
      "categories":  { "type": "keyword" },
      "size":        { "type": "keyword" },
      "color":       { "type": "keyword" },
      "price_cents": { "type": "long" },
      "created_at":  { "type": "date" },
      "updated_at":  { "type": "date" }
    }
  }
}`
}
