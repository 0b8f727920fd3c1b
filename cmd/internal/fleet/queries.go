package fleet

const meQuery = `
query me {
	me {
		id
		email
		name
	}
}`

const projectsQuery = `
query projects {
	projects {
		edges {
			node {
				id
				name
				services {
					edges {
						node {
							id
							name
						}
					}
				}
			}
		}
	}
}`

const latestDeploymentQuery = `
query service($id: String!) {
	service(id: $id) {
		id
		name
		deployments(first: 1) {
			edges {
				node {
					id
					status
					createdAt
					staticUrl
				}
			}
		}
	}
}`
