package config

// DefaultAPIURL is the hosted Omnivore GraphQL endpoint, used when no
// destination instance is configured.
const DefaultAPIURL = "https://api-prod.omnivore.app/api/graphql"
