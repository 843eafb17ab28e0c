// Package fusionrag is an embeddable Go client for the fusionrag retrieval
// engine: hybrid vector and keyword search over a bot's knowledge base,
// optional web augmentation and reranking, and cached answer generation.
//
//	client, err := fusionrag.New(ctx,
//	    fusionrag.WithPostgres("postgres://localhost/chatbot"),
//	    fusionrag.WithCache("redis://localhost:6379"),
//	    fusionrag.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	docs, _ := client.Retrieve(ctx, botID, "how do I reset my password?", fusionrag.TopK(5))
//	answer, _ := client.Ask(ctx, botID, "and on mobile?", history)
//
// Every cache failure degrades to a miss; only document store and embedding
// failures surface as errors (see ErrRetrievalFailed).
package fusionrag
