package tools

// builtinCapabilities returns the full capability set in registration
// order. The extraction tool comes first: the policy prompt tells the
// model to reach for it before anything else on product queries.
func builtinCapabilities() []Capability {
	return []Capability{
		{
			Kind: KindExtractUPC,
			Name: "extract_upc",
			Description: "Extracts UPC codes and product descriptions from natural language text about products. " +
				"Use this tool when the user mentions numbers that could be UPC codes or asks about specific products. " +
				"Input should be the user's complete message.",
			Parameters: map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The user's complete message to extract a UPC and description from",
				},
			},
			Required: []string{"text"},
		},
		{
			Kind: KindValidateUPC,
			Name: "validate_upc",
			Description: "Validates a 12-digit UPC-A code by recomputing its check digit. " +
				"Use after extracting a UPC to confirm it is well-formed before looking it up.",
			Parameters: map[string]any{
				"upc": map[string]any{
					"type":        "string",
					"description": "The UPC code to validate, digits only",
				},
			},
			Required: []string{"upc"},
		},
		{
			Kind: KindRepairUPC,
			Name: "repair_upc",
			Description: "Computes the correct check digit for a UPC and returns the repaired 12-digit code. " +
				"Use when validate_upc reports an invalid check digit, or when only 11 digits are available.",
			Parameters: map[string]any{
				"upc": map[string]any{
					"type":        "string",
					"description": "An 11- or 12-digit UPC whose check digit should be computed",
				},
			},
			Required: []string{"upc"},
		},
		{
			Kind: KindKnowledgeBase,
			Name: "search_knowledge_base",
			Description: "Searches the local product knowledge base and answers from retrieved passages only. " +
				"Use this first for product information once a valid UPC or product name is known.",
			Parameters: map[string]any{
				"question": map[string]any{
					"type":        "string",
					"description": "The product question to answer from the knowledge base",
				},
			},
			Required: []string{"question"},
		},
		{
			Kind: KindProductLookup,
			Name: "lookup_product",
			Description: "Looks up packaged food products in the USDA FoodData Central database. " +
				"Accepts a UPC code or a product name and returns matching products with brand, ingredients and nutrients.",
			Parameters: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "A UPC code or product name to search for",
				},
			},
			Required: []string{"query"},
		},
		{
			Kind: KindWebSearch,
			Name: "web_search",
			Description: "Performs a general web search. Use for supplementary product research, " +
				"or when the knowledge base and product database have no information.",
			Parameters: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			Required: []string{"query"},
		},
	}
}
