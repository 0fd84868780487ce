package meetup

// federatedQuery returns upcoming events for every group in the pro network
// of the authenticated member. Event nodes carry their group, the network
// itself does not.
const federatedQuery = `
query {
    self {
        id
        name
        upcomingEvents {
            count
            edges {
                node {
                    id
                    title
                    description
                    dateTime
                    eventUrl
                    group {
                        id
                        name
                        urlname
                        link
                        city
                    }
                }
            }
        }
    }
}`

// groupQuery covers groups outside the pro network.
const groupQuery = `
query($urlname: String!) {
    groupByUrlname(urlname: $urlname) {
        id
        name
        urlname
        city
        link
        upcomingEvents(input: { first: 1 }) {
            count
            edges {
                node {
                    id
                    title
                    description
                    dateTime
                    eventUrl
                    group {
                        id
                        name
                        urlname
                        link
                        city
                    }
                }
            }
        }
    }
}`
